package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CooldownType string

const (
	CooldownWork      CooldownType = "work"
	CooldownJobChange CooldownType = "job_change"
)

// Cooldown is a timed lock on one action type for one user. Expired rows are
// deleted lazily the next time the same action type is checked, not by a
// background sweep.
type Cooldown struct {
	bun.BaseModel `bun:"table:cooldowns,alias:cd"`

	ID           int64        `bun:"id,pk,autoincrement"`
	UserID       string       `bun:"user_id,notnull"`
	CooldownType CooldownType `bun:"cooldown_type,notnull"`
	ExpiresAt    time.Time    `bun:"expires_at,notnull"`
}

// Expired reports whether the cooldown has lapsed at the given instant.
func (c *Cooldown) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Remaining returns the time left until expiry, zero if already lapsed.
func (c *Cooldown) Remaining(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
