package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// UserBalance holds one user's balance in one currency. Every user gets a row
// per currency at first contact, seeded at the currency's starting value.
type UserBalance struct {
	bun.BaseModel `bun:"table:user_balances,alias:ub"`

	ID         int64           `bun:"id,pk,autoincrement"`
	UserID     string          `bun:"user_id,notnull"`
	CurrencyID int64           `bun:"currency_id,notnull"`
	Balance    decimal.Decimal `bun:"balance,type:numeric(20,6),notnull"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:current_timestamp"`

	Currency *Currency `bun:"rel:belongs-to,join:currency_id=id"`
}

// Transaction is the append-only audit record behind every balance mutation.
// A balance row is never updated without inserting exactly one of these in
// the same database transaction.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:tx"`

	ID         int64           `bun:"id,pk,autoincrement"`
	Reference  string          `bun:"reference,notnull,unique"`
	UserID     string          `bun:"user_id,notnull"`
	CurrencyID int64           `bun:"currency_id,notnull"`
	Amount     decimal.Decimal `bun:"amount,type:numeric(20,6),notnull"`
	Note       string          `bun:"note,notnull"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}
