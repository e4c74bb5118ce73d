package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
)

// CooldownRepository owns the timed locks of the cooldown gate.
type CooldownRepository interface {
	Get(ctx context.Context, userID string, cooldownType models.CooldownType) (*models.Cooldown, error)
	Upsert(ctx context.Context, cooldown *models.Cooldown) error
	// Arm upserts only when no live cooldown exists, reporting whether it
	// won. Concurrent arms of the same (user, type) serialize on the row:
	// exactly one observes true.
	Arm(ctx context.Context, cooldown *models.Cooldown, now time.Time) (bool, error)
	Delete(ctx context.Context, userID string, cooldownType models.CooldownType) error
	// DeleteExpired removes all lapsed rows; housekeeping only, never
	// correctness-bearing.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type cooldownRepository struct {
	db *bun.DB
}

func NewCooldownRepository(db *bun.DB) CooldownRepository {
	return &cooldownRepository{db: db}
}

func (r *cooldownRepository) Get(ctx context.Context, userID string, cooldownType models.CooldownType) (*models.Cooldown, error) {
	cooldown := new(models.Cooldown)
	err := r.db.NewSelect().
		Model(cooldown).
		Where("user_id = ? AND cooldown_type = ?", userID, cooldownType).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}
	return cooldown, nil
}

func (r *cooldownRepository) Upsert(ctx context.Context, cooldown *models.Cooldown) error {
	_, err := r.db.NewInsert().
		Model(cooldown).
		On("CONFLICT (user_id, cooldown_type) DO UPDATE").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert cooldown: %w", err)
	}
	return nil
}

func (r *cooldownRepository) Arm(ctx context.Context, cooldown *models.Cooldown, now time.Time) (bool, error) {
	result, err := r.db.NewInsert().
		Model(cooldown).
		On("CONFLICT (user_id, cooldown_type) DO UPDATE").
		Set("expires_at = EXCLUDED.expires_at").
		Where("cd.expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to arm cooldown: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (r *cooldownRepository) Delete(ctx context.Context, userID string, cooldownType models.CooldownType) error {
	_, err := r.db.NewDelete().
		Model((*models.Cooldown)(nil)).
		Where("user_id = ? AND cooldown_type = ?", userID, cooldownType).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete cooldown: %w", err)
	}
	return nil
}

func (r *cooldownRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.Cooldown)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cooldowns: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
