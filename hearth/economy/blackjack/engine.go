// Package blackjack implements the game state machine: Start deals a hand
// against the dealer, Hit and Stand advance it, and settlement moves the bet
// through the ledger exactly once. Dealer hole cards are censored in every
// in-progress response.
package blackjack

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

// Window is how long a started game stays playable.
const Window = 5 * time.Minute

const codePrefix = "BJ"

const (
	winNote  = "Blackjack win"
	loseNote = "Blackjack loss"
)

// Action is a player move.
type Action string

const (
	ActionHit   Action = "Hit"
	ActionStand Action = "Stand"
)

// State is the client-facing view of a game. While the game is in progress
// the dealer's hand shows only the first card and DealerValue is zero.
type State struct {
	Code        string
	Currency    *models.Currency
	Bet         decimal.Decimal
	UserHand    []string
	UserValue   int
	DealerHand  []string
	DealerValue int
	Result      *models.GameResult
	ExpiresAt   time.Time
}

type Engine struct {
	games      repositories.BlackjackRepository
	currencies repositories.CurrencyRepository
	ledger     *ledger.Ledger
	rand       economy.Rand
}

func NewEngine(
	games repositories.BlackjackRepository,
	currencies repositories.CurrencyRepository,
	ledger *ledger.Ledger,
	rand economy.Rand,
) *Engine {
	return &Engine{
		games:      games,
		currencies: currencies,
		ledger:     ledger,
		rand:       rand,
	}
}

// Start deals a fresh game: two cards each for user and dealer. The currency
// must be gamble-enabled, the bet positive and covered by the user's
// balance, and the user must not hold an unresolved, unexpired game. The
// deal never settles; even a dealt 21 waits for the player's move.
func (e *Engine) Start(ctx context.Context, userID string, currencyID int64, bet decimal.Decimal) (*State, error) {
	currency, err := e.currencies.GetByID(ctx, currencyID)
	if err != nil {
		return nil, err
	}
	if !currency.CanGamble {
		return nil, &economy.ValidationError{Field: "currency", Reason: "not gamble-enabled"}
	}
	if !bet.IsPositive() {
		return nil, &economy.ValidationError{Field: "bet", Reason: "must be positive"}
	}

	bet = currency.Round(bet)
	balance, err := e.ledger.Balance(ctx, userID, currencyID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(bet) {
		return nil, economy.ErrInsufficientFunds
	}

	now := time.Now()
	if active, err := e.games.GetActiveByUser(ctx, userID, now); err != nil {
		return nil, err
	} else if active != nil {
		return nil, economy.ErrConflict
	}

	userHand := deal(e.rand)
	dealerHand := deal(e.rand)
	game := &models.BlackjackGame{
		Code:        economy.NewCode(codePrefix),
		UserID:      userID,
		CurrencyID:  currencyID,
		Bet:         bet,
		UserHand:    userHand,
		DealerHand:  dealerHand,
		UserValue:   handValue(userHand),
		DealerValue: handValue(dealerHand),
		ExpiresAt:   now.Add(Window),
	}
	if err := e.games.Create(ctx, game); err != nil {
		return nil, err
	}
	game.Currency = currency

	slog.Info("Blackjack dealt",
		slog.String("user_id", userID),
		slog.String("code", game.Code),
		slog.String("bet", currency.Format(bet)))

	return newState(game), nil
}

// Act applies a player move and evaluates the outcome. Hit draws one card
// for the user and, while the dealer sits below the stand threshold, one for
// the dealer. Stand plays the dealer out. A terminal outcome settles the bet
// in the same store transaction that records it.
func (e *Engine) Act(ctx context.Context, code string, action Action) (*State, error) {
	if action != ActionHit && action != ActionStand {
		return nil, &economy.ValidationError{Field: "action", Reason: "must be Hit or Stand"}
	}

	game, err := e.games.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if game.Resolved() {
		return nil, economy.ErrInvalidState
	}
	if game.Expired(time.Now()) {
		return nil, economy.ErrExpired
	}

	switch action {
	case ActionHit:
		game.UserHand = append(game.UserHand, drawCard(e.rand, game.UserHand))
		game.DealerHand = dealerPlay(e.rand, game.DealerHand, 1)
	case ActionStand:
		game.DealerHand = dealerPlay(e.rand, game.DealerHand, 0)
	}
	game.UserValue = handValue(game.UserHand)
	game.DealerValue = handValue(game.DealerHand)
	game.Moves++

	result := evaluate(game.UserValue, game.DealerValue, action == ActionStand)
	if result == nil {
		if err := e.games.Advance(ctx, game); err != nil {
			return nil, err
		}
		return newState(game), nil
	}

	game.Result = result
	delta, note := settlement(*result, game.Bet)
	if err := e.games.Settle(ctx, game, game.Currency, delta, note); err != nil {
		return nil, err
	}

	slog.Info("Blackjack settled",
		slog.String("user_id", game.UserID),
		slog.String("code", game.Code),
		slog.String("result", string(*result)),
		slog.Int("user_value", game.UserValue),
		slog.Int("dealer_value", game.DealerValue))

	return newState(game), nil
}

// Current returns the user's active game view, or nil when there is none.
func (e *Engine) Current(ctx context.Context, userID string) (*State, error) {
	game, err := e.games.GetActiveByUser(ctx, userID, time.Now())
	if err != nil || game == nil {
		return nil, err
	}
	return newState(game), nil
}

func deal(r economy.Rand) []string {
	hand := []string{drawCard(r, nil)}
	return append(hand, drawCard(r, hand))
}

// evaluate returns the terminal outcome, or nil while the hand stays open.
// Only a bust, a 21 on either side, or a Stand can end a game.
func evaluate(user, dealer int, stood bool) *models.GameResult {
	outcome := func(r models.GameResult) *models.GameResult { return &r }

	switch {
	case user > blackjack:
		return outcome(models.GameLose)
	case user == blackjack:
		if dealer == blackjack {
			return outcome(models.GameTie)
		}
		return outcome(models.GameWin)
	case dealer > blackjack:
		return outcome(models.GameWin)
	case dealer == blackjack:
		return outcome(models.GameLose)
	case stood:
		switch {
		case dealer > user:
			return outcome(models.GameLose)
		case user > dealer:
			return outcome(models.GameWin)
		default:
			return outcome(models.GameTie)
		}
	default:
		return nil
	}
}

// settlement maps an outcome to the signed ledger delta and audit note. Ties
// move nothing and write no entry.
func settlement(result models.GameResult, bet decimal.Decimal) (decimal.Decimal, string) {
	switch result {
	case models.GameWin:
		return bet, winNote
	case models.GameLose:
		return bet.Neg(), loseNote
	default:
		return decimal.Zero, ""
	}
}

func newState(game *models.BlackjackGame) *State {
	state := &State{
		Code:        game.Code,
		Currency:    game.Currency,
		Bet:         game.Bet,
		UserHand:    game.UserHand,
		UserValue:   game.UserValue,
		DealerHand:  game.DealerHand,
		DealerValue: game.DealerValue,
		Result:      game.Result,
		ExpiresAt:   game.ExpiresAt,
	}
	if !game.Resolved() {
		state.DealerHand = censorDealer(game.DealerHand)
		state.DealerValue = 0
	}
	return state
}
