// Package cooldown implements the expiring-lock gate in front of repeatable
// actions. Expiry is observed lazily: a lapsed row is deleted by the next
// Check of the same (user, type), so no background sweep is needed for
// correctness.
package cooldown

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/database/repositories"
)

type Gate struct {
	repo repositories.CooldownRepository
}

func NewGate(repo repositories.CooldownRepository) *Gate {
	return &Gate{repo: repo}
}

// Check returns the remaining lock time for (user, type), or zero when the
// action may proceed. A stored cooldown that has lapsed is consumed (deleted)
// as a side effect of the check.
func (g *Gate) Check(ctx context.Context, userID string, cooldownType models.CooldownType) (time.Duration, error) {
	cd, err := g.repo.Get(ctx, userID, cooldownType)
	if err != nil {
		return 0, err
	}
	if cd == nil {
		return 0, nil
	}

	now := time.Now()
	if cd.Expired(now) {
		if err := g.repo.Delete(ctx, userID, cooldownType); err != nil {
			return 0, err
		}
		slog.Debug("Stale cooldown consumed",
			slog.String("type", "db"),
			slog.String("user_id", userID),
			slog.String("cooldown_type", string(cooldownType)))
		return 0, nil
	}

	return cd.Remaining(now), nil
}

// Arm sets the cooldown only if no live one exists, reporting whether it
// won. Callers gating a paid action on the cooldown must pay only on a won
// arm; the arm is the serialization point between concurrent attempts.
func (g *Gate) Arm(ctx context.Context, userID string, cooldownType models.CooldownType, duration time.Duration) (bool, error) {
	now := time.Now()
	return g.repo.Arm(ctx, &models.Cooldown{
		UserID:       userID,
		CooldownType: cooldownType,
		ExpiresAt:    now.Add(duration),
	}, now)
}

// Set overwrites any prior cooldown of the same type with a fresh expiry.
func (g *Gate) Set(ctx context.Context, userID string, cooldownType models.CooldownType, duration time.Duration) error {
	return g.repo.Upsert(ctx, &models.Cooldown{
		UserID:       userID,
		CooldownType: cooldownType,
		ExpiresAt:    time.Now().Add(duration),
	})
}

// Clear drops any cooldown of the given type, stale or not.
func (g *Gate) Clear(ctx context.Context, userID string, cooldownType models.CooldownType) error {
	return g.repo.Delete(ctx, userID, cooldownType)
}
