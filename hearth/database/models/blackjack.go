package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type GameResult string

const (
	GameWin  GameResult = "Win"
	GameLose GameResult = "Lose"
	GameTie  GameResult = "Tie"
)

// BlackjackGame is one running or settled hand. Hands are ordered card tokens
// (rank+suit). Moves is an optimistic counter: every advance is a guarded
// update on (result IS NULL AND moves = n), so concurrent actions on the same
// game serialize and the loser observes zero rows affected.
type BlackjackGame struct {
	bun.BaseModel `bun:"table:blackjack_games,alias:bg"`

	ID          int64           `bun:"id,pk,autoincrement"`
	Code        string          `bun:"code,notnull,unique"`
	UserID      string          `bun:"user_id,notnull"`
	CurrencyID  int64           `bun:"currency_id,notnull"`
	Bet         decimal.Decimal `bun:"bet,type:numeric(20,6),notnull"`
	UserHand    []string        `bun:"user_hand,type:jsonb"`
	DealerHand  []string        `bun:"dealer_hand,type:jsonb"`
	UserValue   int             `bun:"user_value,notnull"`
	DealerValue int             `bun:"dealer_value,notnull"`
	Moves       int             `bun:"moves,notnull,default:0"`
	Result      *GameResult     `bun:"result"`
	ExpiresAt   time.Time       `bun:"expires_at,notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull,default:current_timestamp"`

	Currency *Currency `bun:"rel:belongs-to,join:currency_id=id"`
}

// Resolved reports whether the game has settled.
func (g *BlackjackGame) Resolved() bool {
	return g.Result != nil
}

// Expired reports whether the action window has closed.
func (g *BlackjackGame) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}
