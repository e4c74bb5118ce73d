package models

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Currency is administrator-seeded reference data. It is never written by the
// economy engine at runtime.
type Currency struct {
	bun.BaseModel `bun:"table:currencies,alias:c"`

	ID            int64           `bun:"id,pk,autoincrement"`
	Name          string          `bun:"name,notnull,unique"`
	DisplayName   string          `bun:"display_name,notnull"`
	Prefix        string          `bun:"prefix"`
	Color         string          `bun:"color"`
	DecimalPlaces int32           `bun:"decimal_places,notnull"`
	CanExchange   bool            `bun:"can_exchange,notnull"`
	CanGamble     bool            `bun:"can_gamble,notnull"`
	CanWorkFor    bool            `bun:"can_work_for,notnull"`
	ExchangeRate  decimal.Decimal `bun:"exchange_rate,type:numeric(20,6),notnull"`
	// ValueMultiplier scales raw job pay rolls down into this currency.
	ValueMultiplier decimal.Decimal `bun:"value_multiplier,type:numeric(20,6),notnull"`
	StartingValue   decimal.Decimal `bun:"starting_value,type:numeric(20,6),notnull"`
}

// Round snaps an amount to the currency's precision.
func (c *Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.DecimalPlaces)
}

// Format renders an amount with the currency's prefix symbol, e.g. "⟡125.50".
func (c *Currency) Format(amount decimal.Decimal) string {
	return c.Prefix + amount.StringFixed(c.DecimalPlaces)
}
