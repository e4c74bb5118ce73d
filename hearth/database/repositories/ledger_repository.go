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

// LedgerRepository owns user balances and their audit log. Every mutation
// runs as one transaction that updates the balance row and appends exactly
// one Transaction record.
type LedgerRepository interface {
	GetBalance(ctx context.Context, userID string, currencyID int64) (*models.UserBalance, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserBalance, error)
	ListTransactions(ctx context.Context, userID string, currencyID int64, limit int) ([]*models.Transaction, error)
	// Seed inserts a balance row at the currency's starting value for every
	// currency the user does not hold yet. Idempotent.
	Seed(ctx context.Context, userID string, currencies []*models.Currency) error
	// ApplyDelta atomically adds a signed amount and records the audit entry.
	// With enforceFloor set it fails with economy.ErrInsufficientFunds rather
	// than letting the balance go negative.
	ApplyDelta(ctx context.Context, userID string, currency *models.Currency, amount decimal.Decimal, note string, enforceFloor bool) (decimal.Decimal, error)
	// Transfer moves amount between two users in a single transaction: debit
	// with floor enforcement, credit, two audit entries, all-or-nothing.
	Transfer(ctx context.Context, fromID, toID string, currency *models.Currency, amount decimal.Decimal, note string) error
}

type ledgerRepository struct {
	db *bun.DB
}

func NewLedgerRepository(db *bun.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetBalance(ctx context.Context, userID string, currencyID int64) (*models.UserBalance, error) {
	balance := new(models.UserBalance)
	err := r.db.NewSelect().
		Model(balance).
		Where("user_id = ? AND currency_id = ?", userID, currencyID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserBalance, error) {
	var balances []*models.UserBalance
	err := r.db.NewSelect().
		Model(&balances).
		Relation("Currency").
		Where("ub.user_id = ?", userID).
		Order("ub.currency_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balances, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID string, currencyID int64, limit int) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	q := r.db.NewSelect().
		Model(&txns).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if currencyID > 0 {
		q = q.Where("currency_id = ?", currencyID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) Seed(ctx context.Context, userID string, currencies []*models.Currency) error {
	if len(currencies) == 0 {
		return nil
	}

	rows := make([]*models.UserBalance, 0, len(currencies))
	for _, currency := range currencies {
		rows = append(rows, &models.UserBalance{
			UserID:     userID,
			CurrencyID: currency.ID,
			Balance:    currency.Round(currency.StartingValue),
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		})
	}

	_, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (user_id, currency_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed balances: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ApplyDelta(ctx context.Context, userID string, currency *models.Currency, amount decimal.Decimal, note string, enforceFloor bool) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := withTransaction(ctx, r.db, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		newBalance, err = applyBalanceDelta(ctx, tx, userID, currency, amount, note, enforceFloor)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	slog.Debug("Balance delta applied",
		slog.String("type", "db"),
		slog.String("user_id", userID),
		slog.Int64("currency_id", currency.ID),
		slog.String("amount", amount.String()),
		slog.String("note", note))

	return newBalance, nil
}

func (r *ledgerRepository) Transfer(ctx context.Context, fromID, toID string, currency *models.Currency, amount decimal.Decimal, note string) error {
	return withTransaction(ctx, r.db, SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		// Lock in a stable order so two opposing gifts cannot deadlock.
		first, second := fromID, toID
		firstAmount, secondAmount := amount.Neg(), amount
		firstFloor, secondFloor := true, false
		if toID < fromID {
			first, second = toID, fromID
			firstAmount, secondAmount = amount, amount.Neg()
			firstFloor, secondFloor = false, true
		}

		if _, err := applyBalanceDelta(ctx, tx, first, currency, firstAmount, note, firstFloor); err != nil {
			return err
		}
		if _, err := applyBalanceDelta(ctx, tx, second, currency, secondAmount, note, secondFloor); err != nil {
			return err
		}
		return nil
	})
}
