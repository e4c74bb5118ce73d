package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ExchangeResult string

const (
	ExchangeConfirmed ExchangeResult = "Confirmation"
	ExchangeCancelled ExchangeResult = "Cancellation"
)

// CurrencyExchange is a single-use conversion intent. Start quotes and stores
// it with a null result; Resolve terminally confirms or cancels it. At most
// one unresolved, unexpired exchange may exist per user.
type CurrencyExchange struct {
	bun.BaseModel `bun:"table:currency_exchanges,alias:ce"`

	ID             int64           `bun:"id,pk,autoincrement"`
	Code           string          `bun:"code,notnull,unique"`
	UserID         string          `bun:"user_id,notnull"`
	CurrencyFromID int64           `bun:"currency_from_id,notnull"`
	CurrencyToID   int64           `bun:"currency_to_id,notnull"`
	AmountFrom     decimal.Decimal `bun:"amount_from,type:numeric(20,6),notnull"`
	AmountTo       decimal.Decimal `bun:"amount_to,type:numeric(20,6),notnull"`
	// Rate is the relative rate locked at quote time (rate_from / rate_to).
	Rate      decimal.Decimal `bun:"rate,type:numeric(20,6),notnull"`
	Result    *ExchangeResult `bun:"result"`
	ExpiresAt time.Time       `bun:"expires_at,notnull"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time       `bun:"updated_at,notnull,default:current_timestamp"`

	CurrencyFrom *Currency `bun:"rel:belongs-to,join:currency_from_id=id"`
	CurrencyTo   *Currency `bun:"rel:belongs-to,join:currency_to_id=id"`
}

// Resolved reports whether a terminal result has been recorded.
func (e *CurrencyExchange) Resolved() bool {
	return e.Result != nil
}

// Expired reports whether the exchange window has closed.
func (e *CurrencyExchange) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
