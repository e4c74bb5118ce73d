package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Job is administrator-seeded reference data describing an occupation users
// can hold. Pay rolls uniformly in [MinPay, MaxPay] before currency scaling.
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          int64           `bun:"id,pk,autoincrement"`
	Name        string          `bun:"name,notnull,unique"`
	DisplayName string          `bun:"display_name,notnull"`
	MinPay      int64           `bun:"min_pay,notnull"`
	MaxPay      int64           `bun:"max_pay,notnull"`
	Cooldown    int64           `bun:"cooldown,notnull"`
	// OverriddenCurrencyID pins the pay currency. When null, a work-enabled
	// currency is chosen at random at assignment time.
	OverriddenCurrencyID *int64 `bun:"overridden_currency_id"`

	OverriddenCurrency *Currency `bun:"rel:belongs-to,join:overridden_currency_id=id"`
}

// CooldownDuration returns the work cooldown as a time.Duration.
func (j *Job) CooldownDuration() time.Duration {
	return time.Duration(j.Cooldown) * time.Second
}

// UserJob links a user to their held job. Absence means unemployed. The pay
// currency is resolved once at assignment and never re-derived.
type UserJob struct {
	bun.BaseModel `bun:"table:user_jobs,alias:uj"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     string    `bun:"user_id,notnull,unique"`
	JobID      int64     `bun:"job_id,notnull"`
	CurrencyID int64     `bun:"currency_id,notnull"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`

	Job      *Job      `bun:"rel:belongs-to,join:job_id=id"`
	Currency *Currency `bun:"rel:belongs-to,join:currency_id=id"`
}
