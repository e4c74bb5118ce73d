// Package exchange implements the two-phase currency conversion protocol.
// Start quotes and issues a time-boxed code without touching balances;
// Resolve terminally confirms or cancels the intent. The split keeps a
// displayed quote honest: the rate locked at Start is the rate settled at
// Resolve.
package exchange

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/database/repositories"
	"github.com/hearthgate/hearth/hearth/economy"
	"github.com/hearthgate/hearth/hearth/economy/ledger"
)

// Window is how long an issued code stays confirmable.
const Window = 5 * time.Minute

const codePrefix = "EX"

// Action is the caller's decision at the second phase.
type Action string

const (
	ActionConfirm Action = "Confirm"
	ActionCancel  Action = "Cancel"
)

type Manager struct {
	exchanges  repositories.ExchangeRepository
	currencies repositories.CurrencyRepository
	ledger     *ledger.Ledger
}

func NewManager(
	exchanges repositories.ExchangeRepository,
	currencies repositories.CurrencyRepository,
	ledger *ledger.Ledger,
) *Manager {
	return &Manager{
		exchanges:  exchanges,
		currencies: currencies,
		ledger:     ledger,
	}
}

// Start quotes a conversion and persists the intent. Both currencies must be
// exchange-enabled and distinct, the amount positive and covered by the
// user's balance, and the user must not already hold an unresolved,
// unexpired exchange. No balance moves here.
func (m *Manager) Start(ctx context.Context, userID string, fromID, toID int64, amount decimal.Decimal) (*models.CurrencyExchange, error) {
	if fromID == toID {
		return nil, &economy.ValidationError{Field: "currency", Reason: "source and target must differ"}
	}
	if !amount.IsPositive() {
		return nil, &economy.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	from, err := m.currencies.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := m.currencies.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if !from.CanExchange {
		return nil, &economy.ValidationError{Field: "currency_from", Reason: "not exchangeable"}
	}
	if !to.CanExchange {
		return nil, &economy.ValidationError{Field: "currency_to", Reason: "not exchangeable"}
	}

	amount = from.Round(amount)
	balance, err := m.ledger.Balance(ctx, userID, fromID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, economy.ErrInsufficientFunds
	}

	now := time.Now()
	if active, err := m.exchanges.GetActiveByUser(ctx, userID, now); err != nil {
		return nil, err
	} else if active != nil {
		return nil, economy.ErrConflict
	}

	// The rate is relative unit value: how many units of the target one
	// unit of the source is worth.
	rate := from.ExchangeRate.Div(to.ExchangeRate)
	exchange := &models.CurrencyExchange{
		Code:           economy.NewCode(codePrefix),
		UserID:         userID,
		CurrencyFromID: fromID,
		CurrencyToID:   toID,
		AmountFrom:     amount,
		AmountTo:       to.Round(amount.Mul(rate)),
		Rate:           rate,
		ExpiresAt:      now.Add(Window),
	}
	if err := m.exchanges.Create(ctx, exchange); err != nil {
		return nil, err
	}
	exchange.CurrencyFrom, exchange.CurrencyTo = from, to

	slog.Info("Exchange quoted",
		slog.String("user_id", userID),
		slog.String("code", exchange.Code),
		slog.String("from", from.Format(exchange.AmountFrom)),
		slog.String("to", to.Format(exchange.AmountTo)))

	return exchange, nil
}

// Resolve terminally confirms or cancels the intent behind a code. Confirm
// settles both legs atomically; Cancel records the result and moves nothing.
// A resolved code can never be replayed, and an expired one can only fail.
func (m *Manager) Resolve(ctx context.Context, code string, action Action) (*models.CurrencyExchange, error) {
	exchange, err := m.exchanges.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exchange.Resolved() {
		return nil, economy.ErrInvalidState
	}
	if exchange.Expired(time.Now()) {
		return nil, economy.ErrExpired
	}

	var result models.ExchangeResult
	switch action {
	case ActionConfirm:
		result = models.ExchangeConfirmed
		err = m.exchanges.Confirm(ctx, exchange, exchange.CurrencyFrom, exchange.CurrencyTo)
	case ActionCancel:
		result = models.ExchangeCancelled
		err = m.exchanges.Cancel(ctx, exchange)
	default:
		return nil, &economy.ValidationError{Field: "action", Reason: "must be Confirm or Cancel"}
	}
	if err != nil {
		return nil, err
	}
	exchange.Result = &result

	slog.Info("Exchange resolved",
		slog.String("user_id", exchange.UserID),
		slog.String("code", exchange.Code),
		slog.String("result", string(*exchange.Result)))

	return exchange, nil
}
