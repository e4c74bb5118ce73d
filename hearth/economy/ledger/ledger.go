// Package ledger is the balance and audit-log subsystem. Every mutation it
// performs pairs a balance update with exactly one Transaction record; the
// transaction log is the sole source of historical reconstruction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/database/repositories"
	"github.com/hearthgate/hearth/hearth/economy"
)

type Ledger struct {
	repo       repositories.LedgerRepository
	currencies repositories.CurrencyRepository
}

func New(repo repositories.LedgerRepository, currencies repositories.CurrencyRepository) *Ledger {
	return &Ledger{repo: repo, currencies: currencies}
}

// EnsureSeeded creates a balance row at the currency's starting value for
// every currency the user does not hold yet. Called on first contact with a
// resolved identity; idempotent.
func (l *Ledger) EnsureSeeded(ctx context.Context, userID string) error {
	currencies, err := l.currencies.GetAll(ctx)
	if err != nil {
		return err
	}
	return l.repo.Seed(ctx, userID, currencies)
}

// Balance returns the user's balance for one currency, zero if unseeded.
func (l *Ledger) Balance(ctx context.Context, userID string, currencyID int64) (decimal.Decimal, error) {
	if _, err := l.currencies.GetByID(ctx, currencyID); err != nil {
		return decimal.Zero, err
	}
	balance, err := l.repo.GetBalance(ctx, userID, currencyID)
	if err != nil {
		if errors.Is(err, economy.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.Balance, nil
}

// UserBalances lists all of the user's balances with currencies attached.
func (l *Ledger) UserBalances(ctx context.Context, userID string) ([]*models.UserBalance, error) {
	return l.repo.ListByUser(ctx, userID)
}

// Transactions lists the user's audit entries, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID string, currencyID int64, limit int) ([]*models.Transaction, error) {
	return l.repo.ListTransactions(ctx, userID, currencyID, limit)
}

// ApplyDelta atomically adds a signed amount to the user's balance and
// appends the audit record. enforceFloor rejects results below zero with
// economy.ErrInsufficientFunds; administrative adjustments pass false.
func (l *Ledger) ApplyDelta(ctx context.Context, userID string, currencyID int64, amount decimal.Decimal, note string, enforceFloor bool) (decimal.Decimal, error) {
	currency, err := l.currencies.GetByID(ctx, currencyID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.repo.ApplyDelta(ctx, userID, currency, amount, note, enforceFloor)
}

// Gift transfers amount from one user to another: one atomic debit+credit,
// two audit entries, all-or-nothing.
func (l *Ledger) Gift(ctx context.Context, fromID, toID string, currencyID int64, amount decimal.Decimal) error {
	if fromID == toID {
		return &economy.ValidationError{Field: "user", Reason: "cannot gift to yourself"}
	}
	if !amount.IsPositive() {
		return &economy.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	currency, err := l.currencies.GetByID(ctx, currencyID)
	if err != nil {
		return err
	}

	note := fmt.Sprintf("Gift transfer %s -> %s", fromID, toID)
	if err := l.repo.Transfer(ctx, fromID, toID, currency, currency.Round(amount), note); err != nil {
		return err
	}

	slog.Info("Gift transferred",
		slog.String("from", fromID),
		slog.String("to", toID),
		slog.Int64("currency_id", currencyID),
		slog.String("amount", amount.String()))

	return nil
}
