package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
)

const defaultTxTimeout = 10 * time.Second

// TransactionOptions configures transaction behavior for economy operations.
type TransactionOptions struct {
	IsolationLevel sql.IsolationLevel
	Timeout        time.Duration
}

// StandardTransactionOptions returns default transaction options.
func StandardTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelReadCommitted,
		Timeout:        defaultTxTimeout,
	}
}

// SerializableTransactionOptions returns serializable isolation for the
// resolve and settle paths, where double application must be impossible.
func SerializableTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelSerializable,
		Timeout:        defaultTxTimeout,
	}
}

// withTransaction executes fn within a database transaction. The transaction
// is rolled back unless fn returns nil and the commit succeeds.
func withTransaction(ctx context.Context, db *bun.DB, opts *TransactionOptions, fn func(context.Context, bun.Tx) error) error {
	if opts == nil {
		opts = StandardTransactionOptions()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tx, err := db.BeginTx(timeoutCtx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(timeoutCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// applyBalanceDelta is the single write path behind every balance mutation:
// lock the balance row, enforce the non-negative floor when asked, update the
// balance and append the audit Transaction, all on the caller's transaction.
func applyBalanceDelta(ctx context.Context, tx bun.Tx, userID string, currency *models.Currency, amount decimal.Decimal, note string, enforceFloor bool) (decimal.Decimal, error) {
	var balance models.UserBalance
	err := tx.NewSelect().
		Model(&balance).
		Where("user_id = ? AND currency_id = ?", userID, currency.ID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("balance row missing for user %s currency %d: %w", userID, currency.ID, economy.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to lock balance: %w", err)
	}

	amount = currency.Round(amount)
	newBalance := balance.Balance.Add(amount)
	if enforceFloor && newBalance.IsNegative() {
		return decimal.Zero, economy.ErrInsufficientFunds
	}

	_, err = tx.NewUpdate().
		Model((*models.UserBalance)(nil)).
		Set("balance = ?", newBalance).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", balance.ID).
		Exec(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.NewInsert().
		Model(&models.Transaction{
			Reference:  uuid.New().String(),
			UserID:     userID,
			CurrencyID: currency.ID,
			Amount:     amount,
			Note:       note,
			CreatedAt:  time.Now(),
		}).
		Exec(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to append transaction: %w", err)
	}

	return newBalance, nil
}
