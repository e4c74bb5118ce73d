package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
)

// ExchangeRepository owns currency exchange intents. Confirm and Cancel are
// the only writes after creation; both are guarded on result IS NULL so a
// code can never be resolved twice.
type ExchangeRepository interface {
	Create(ctx context.Context, exchange *models.CurrencyExchange) error
	GetByCode(ctx context.Context, code string) (*models.CurrencyExchange, error)
	// GetActiveByUser returns the user's unresolved, unexpired exchange or
	// nil when there is none.
	GetActiveByUser(ctx context.Context, userID string, now time.Time) (*models.CurrencyExchange, error)
	// Confirm moves both balance legs and records the terminal result in one
	// serializable transaction. economy.ErrInvalidState when already resolved.
	Confirm(ctx context.Context, exchange *models.CurrencyExchange, from, to *models.Currency) error
	// Cancel records the terminal Cancellation result; no balances move.
	Cancel(ctx context.Context, exchange *models.CurrencyExchange) error
	// DeleteResolvedOrExpiredBefore prunes terminal and long-expired rows.
	DeleteResolvedOrExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type exchangeRepository struct {
	db *bun.DB
}

func NewExchangeRepository(db *bun.DB) ExchangeRepository {
	return &exchangeRepository{db: db}
}

// Create claims the user's single active slot. The unique partial index on
// (user_id) WHERE result IS NULL is the backstop against concurrent starts:
// the losing insert affects zero rows and returns economy.ErrConflict. A
// lapsed unresolved row holding the slot is cleared once before giving up.
func (r *exchangeRepository) Create(ctx context.Context, exchange *models.CurrencyExchange) error {
	for attempt := 0; attempt < 2; attempt++ {
		exchange.CreatedAt = time.Now()
		exchange.UpdatedAt = time.Now()
		res, err := r.db.NewInsert().
			Model(exchange).
			On("CONFLICT (user_id) WHERE result IS NULL DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create exchange: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			return nil
		}

		cleared, err := r.db.NewDelete().
			Model((*models.CurrencyExchange)(nil)).
			Where("user_id = ? AND result IS NULL AND expires_at <= ?", exchange.UserID, time.Now()).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear lapsed exchange: %w", err)
		}
		if affected, _ := cleared.RowsAffected(); affected == 0 {
			return economy.ErrConflict
		}
	}
	return economy.ErrConflict
}

func (r *exchangeRepository) GetByCode(ctx context.Context, code string) (*models.CurrencyExchange, error) {
	exchange := new(models.CurrencyExchange)
	err := r.db.NewSelect().
		Model(exchange).
		Relation("CurrencyFrom").
		Relation("CurrencyTo").
		Where("ce.code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return exchange, nil
}

func (r *exchangeRepository) GetActiveByUser(ctx context.Context, userID string, now time.Time) (*models.CurrencyExchange, error) {
	exchange := new(models.CurrencyExchange)
	err := r.db.NewSelect().
		Model(exchange).
		Where("user_id = ? AND result IS NULL AND expires_at > ?", userID, now).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active exchange: %w", err)
	}
	return exchange, nil
}

func (r *exchangeRepository) Confirm(ctx context.Context, exchange *models.CurrencyExchange, from, to *models.Currency) error {
	err := withTransaction(ctx, r.db, SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		if err := r.markResolved(ctx, tx, exchange.ID, models.ExchangeConfirmed); err != nil {
			return err
		}
		if _, err := applyBalanceDelta(ctx, tx, exchange.UserID, from, exchange.AmountFrom.Neg(), "Currency exchange", true); err != nil {
			return err
		}
		if _, err := applyBalanceDelta(ctx, tx, exchange.UserID, to, exchange.AmountTo, "Currency exchange", false); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Exchange confirmed",
		slog.String("type", "db"),
		slog.String("code", exchange.Code),
		slog.String("user_id", exchange.UserID),
		slog.String("amount_from", exchange.AmountFrom.String()),
		slog.String("amount_to", exchange.AmountTo.String()))

	return nil
}

func (r *exchangeRepository) Cancel(ctx context.Context, exchange *models.CurrencyExchange) error {
	return withTransaction(ctx, r.db, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		return r.markResolved(ctx, tx, exchange.ID, models.ExchangeCancelled)
	})
}

// markResolved records the terminal result. The result IS NULL guard makes a
// second resolution observe zero affected rows.
func (r *exchangeRepository) markResolved(ctx context.Context, tx bun.Tx, id int64, result models.ExchangeResult) error {
	res, err := tx.NewUpdate().
		Model((*models.CurrencyExchange)(nil)).
		Set("result = ?", result).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND result IS NULL", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve exchange: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return economy.ErrInvalidState
	}
	return nil
}

func (r *exchangeRepository) DeleteResolvedOrExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.CurrencyExchange)(nil)).
		Where("(result IS NOT NULL OR expires_at <= ?) AND created_at <= ?", cutoff, cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune exchanges: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
