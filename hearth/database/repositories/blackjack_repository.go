package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
)

// BlackjackRepository owns blackjack game rows. Advance and Settle write the
// engine's already-computed next state; both guard on (result IS NULL AND
// moves = previous) so concurrent actions on one game serialize and the
// loser gets economy.ErrInvalidState.
type BlackjackRepository interface {
	Create(ctx context.Context, game *models.BlackjackGame) error
	GetByCode(ctx context.Context, code string) (*models.BlackjackGame, error)
	// GetActiveByUser returns the user's unresolved, unexpired game or nil.
	GetActiveByUser(ctx context.Context, userID string, now time.Time) (*models.BlackjackGame, error)
	// Advance persists a new in-progress state (hands, values, moves).
	Advance(ctx context.Context, game *models.BlackjackGame) error
	// Settle persists the terminal state and applies the signed settlement
	// delta to the user's balance in the same transaction. A zero delta (tie)
	// writes no ledger entry.
	Settle(ctx context.Context, game *models.BlackjackGame, currency *models.Currency, delta decimal.Decimal, note string) error
	// DeleteExpiredBefore prunes settled and long-expired games.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type blackjackRepository struct {
	db *bun.DB
}

func NewBlackjackRepository(db *bun.DB) BlackjackRepository {
	return &blackjackRepository{db: db}
}

// Create claims the user's single active slot. The unique partial index on
// (user_id) WHERE result IS NULL is the backstop against concurrent starts:
// the losing insert affects zero rows and returns economy.ErrConflict. A
// lapsed unresolved row holding the slot is cleared once before giving up.
func (r *blackjackRepository) Create(ctx context.Context, game *models.BlackjackGame) error {
	for attempt := 0; attempt < 2; attempt++ {
		game.CreatedAt = time.Now()
		game.UpdatedAt = time.Now()
		res, err := r.db.NewInsert().
			Model(game).
			On("CONFLICT (user_id) WHERE result IS NULL DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			return nil
		}

		cleared, err := r.db.NewDelete().
			Model((*models.BlackjackGame)(nil)).
			Where("user_id = ? AND result IS NULL AND expires_at <= ?", game.UserID, time.Now()).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear lapsed game: %w", err)
		}
		if affected, _ := cleared.RowsAffected(); affected == 0 {
			return economy.ErrConflict
		}
	}
	return economy.ErrConflict
}

func (r *blackjackRepository) GetByCode(ctx context.Context, code string) (*models.BlackjackGame, error) {
	game := new(models.BlackjackGame)
	err := r.db.NewSelect().
		Model(game).
		Relation("Currency").
		Where("bg.code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *blackjackRepository) GetActiveByUser(ctx context.Context, userID string, now time.Time) (*models.BlackjackGame, error) {
	game := new(models.BlackjackGame)
	err := r.db.NewSelect().
		Model(game).
		Where("user_id = ? AND result IS NULL AND expires_at > ?", userID, now).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active game: %w", err)
	}
	return game, nil
}

func (r *blackjackRepository) Advance(ctx context.Context, game *models.BlackjackGame) error {
	return withTransaction(ctx, r.db, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		return r.writeState(ctx, tx, game, nil)
	})
}

func (r *blackjackRepository) Settle(ctx context.Context, game *models.BlackjackGame, currency *models.Currency, delta decimal.Decimal, note string) error {
	if game.Result == nil {
		return fmt.Errorf("settle called without a result")
	}

	err := withTransaction(ctx, r.db, SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		if err := r.writeState(ctx, tx, game, game.Result); err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}
		// The bet was floor-checked at start; settlement itself must never
		// fail on funds, so no floor here.
		_, err := applyBalanceDelta(ctx, tx, game.UserID, currency, delta, note, false)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("Blackjack game settled",
		slog.String("type", "db"),
		slog.String("code", game.Code),
		slog.String("user_id", game.UserID),
		slog.String("result", string(*game.Result)),
		slog.String("delta", delta.String()))

	return nil
}

// writeState persists hands, values and the moves counter, optionally fixing
// the terminal result. The moves guard is the compare-and-swap that makes
// exactly one concurrent action win.
func (r *blackjackRepository) writeState(ctx context.Context, tx bun.Tx, game *models.BlackjackGame, result *models.GameResult) error {
	game.UpdatedAt = time.Now()
	q := tx.NewUpdate().
		Model(game).
		Column("user_hand", "dealer_hand", "user_value", "dealer_value", "moves", "updated_at").
		Where("bg.id = ? AND bg.result IS NULL AND bg.moves = ?", game.ID, game.Moves-1)
	if result != nil {
		q = q.Column("result")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return economy.ErrInvalidState
	}
	return nil
}

func (r *blackjackRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.BlackjackGame)(nil)).
		Where("(result IS NOT NULL OR expires_at <= ?) AND created_at <= ?", cutoff, cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune games: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
