package blackjack

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
	"github.com/hearthgate/hearth/hearth/economy/ledger"
)

type fakeCurrencyRepo struct {
	currencies map[int64]*models.Currency
}

func (f *fakeCurrencyRepo) GetAll(_ context.Context) ([]*models.Currency, error) {
	var all []*models.Currency
	for _, c := range f.currencies {
		all = append(all, c)
	}
	return all, nil
}

func (f *fakeCurrencyRepo) GetByID(_ context.Context, id int64) (*models.Currency, error) {
	c, ok := f.currencies[id]
	if !ok {
		return nil, economy.ErrNotFound
	}
	return c, nil
}

func (f *fakeCurrencyRepo) ListWorkable(_ context.Context) ([]*models.Currency, error) {
	var workable []*models.Currency
	for _, c := range f.currencies {
		if c.CanWorkFor {
			workable = append(workable, c)
		}
	}
	return workable, nil
}

type fakeLedgerRepo struct {
	balances     map[string]map[int64]decimal.Decimal
	transactions []*models.Transaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: make(map[string]map[int64]decimal.Decimal)}
}

func (f *fakeLedgerRepo) setBalance(userID string, currencyID int64, amount decimal.Decimal) {
	if f.balances[userID] == nil {
		f.balances[userID] = make(map[int64]decimal.Decimal)
	}
	f.balances[userID][currencyID] = amount
}

func (f *fakeLedgerRepo) GetBalance(_ context.Context, userID string, currencyID int64) (*models.UserBalance, error) {
	balance, ok := f.balances[userID][currencyID]
	if !ok {
		return nil, economy.ErrNotFound
	}
	return &models.UserBalance{UserID: userID, CurrencyID: currencyID, Balance: balance}, nil
}

func (f *fakeLedgerRepo) ListByUser(_ context.Context, userID string) ([]*models.UserBalance, error) {
	var out []*models.UserBalance
	for currencyID, balance := range f.balances[userID] {
		out = append(out, &models.UserBalance{UserID: userID, CurrencyID: currencyID, Balance: balance})
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListTransactions(_ context.Context, userID string, currencyID int64, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID && tx.CurrencyID == currencyID {
			out = append(out, tx)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedgerRepo) Seed(_ context.Context, userID string, currencies []*models.Currency) error {
	for _, c := range currencies {
		if _, ok := f.balances[userID][c.ID]; !ok {
			f.setBalance(userID, c.ID, c.StartingValue)
		}
	}
	return nil
}

func (f *fakeLedgerRepo) ApplyDelta(_ context.Context, userID string, currency *models.Currency, amount decimal.Decimal, note string, enforceFloor bool) (decimal.Decimal, error) {
	next := f.balances[userID][currency.ID].Add(amount)
	if enforceFloor && next.IsNegative() {
		return decimal.Zero, economy.ErrInsufficientFunds
	}
	f.setBalance(userID, currency.ID, next)
	f.transactions = append(f.transactions, &models.Transaction{
		UserID:     userID,
		CurrencyID: currency.ID,
		Amount:     amount,
		Note:       note,
		CreatedAt:  time.Now(),
	})
	return next, nil
}

func (f *fakeLedgerRepo) Transfer(ctx context.Context, fromID, toID string, currency *models.Currency, amount decimal.Decimal, note string) error {
	if _, err := f.ApplyDelta(ctx, fromID, currency, amount.Neg(), note, true); err != nil {
		return err
	}
	_, err := f.ApplyDelta(ctx, toID, currency, amount, note, false)
	return err
}

type fakeGameRepo struct {
	games      map[string]*models.BlackjackGame
	currencies map[int64]*models.Currency
	ledger     *fakeLedgerRepo
}

func (f *fakeGameRepo) Create(_ context.Context, game *models.BlackjackGame) error {
	now := time.Now()
	for code, g := range f.games {
		if g.UserID == game.UserID && g.Result == nil {
			if g.ExpiresAt.After(now) {
				return economy.ErrConflict
			}
			delete(f.games, code)
		}
	}
	stored := *game
	f.games[game.Code] = &stored
	return nil
}

func (f *fakeGameRepo) GetByCode(_ context.Context, code string) (*models.BlackjackGame, error) {
	stored, ok := f.games[code]
	if !ok {
		return nil, economy.ErrNotFound
	}
	game := *stored
	game.Currency = f.currencies[game.CurrencyID]
	return &game, nil
}

func (f *fakeGameRepo) GetActiveByUser(_ context.Context, userID string, now time.Time) (*models.BlackjackGame, error) {
	for _, g := range f.games {
		if g.UserID == userID && g.Result == nil && g.ExpiresAt.After(now) {
			game := *g
			game.Currency = f.currencies[game.CurrencyID]
			return &game, nil
		}
	}
	return nil, nil
}

func (f *fakeGameRepo) Advance(_ context.Context, game *models.BlackjackGame) error {
	stored, ok := f.games[game.Code]
	if !ok || stored.Result != nil || stored.Moves != game.Moves-1 {
		return economy.ErrInvalidState
	}
	next := *game
	f.games[game.Code] = &next
	return nil
}

func (f *fakeGameRepo) Settle(ctx context.Context, game *models.BlackjackGame, currency *models.Currency, delta decimal.Decimal, note string) error {
	stored, ok := f.games[game.Code]
	if !ok || stored.Result != nil || stored.Moves != game.Moves-1 {
		return economy.ErrInvalidState
	}
	next := *game
	f.games[game.Code] = &next
	if !delta.IsZero() {
		_, err := f.ledger.ApplyDelta(ctx, game.UserID, currency, delta, note, false)
		return err
	}
	return nil
}

func (f *fakeGameRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for code, g := range f.games {
		if g.Result != nil || g.ExpiresAt.Before(cutoff) {
			delete(f.games, code)
			n++
		}
	}
	return n, nil
}

func newTestEngine(rand economy.Rand) (*Engine, *fakeLedgerRepo, *fakeGameRepo) {
	currencies := map[int64]*models.Currency{
		1: {
			ID: 1, Name: "embers", DecimalPlaces: 2, CanGamble: true,
			ExchangeRate:    decimal.NewFromInt(1),
			ValueMultiplier: decimal.NewFromInt(1),
			StartingValue:   decimal.NewFromInt(100),
		},
		2: {
			ID: 2, Name: "shards", DecimalPlaces: 0, CanGamble: false,
			ExchangeRate:    decimal.NewFromInt(4),
			ValueMultiplier: decimal.NewFromInt(10),
			StartingValue:   decimal.NewFromInt(10),
		},
	}
	currencyRepo := &fakeCurrencyRepo{currencies: currencies}
	ledgerRepo := newFakeLedgerRepo()
	gameRepo := &fakeGameRepo{
		games:      make(map[string]*models.BlackjackGame),
		currencies: currencies,
		ledger:     ledgerRepo,
	}
	engine := NewEngine(gameRepo, currencyRepo, ledger.New(ledgerRepo, currencyRepo), rand)
	return engine, ledgerRepo, gameRepo
}

func TestEngineStart(t *testing.T) {
	ctx := context.Background()
	bet := decimal.NewFromInt(10)

	t.Run("deals two unique cards per hand", func(t *testing.T) {
		engine, ledgerRepo, _ := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))

		state, err := engine.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		require.Len(t, state.UserHand, 2)
		require.Len(t, state.DealerHand, 2)
		assert.NotEqual(t, state.UserHand[0], state.UserHand[1])
		assert.Nil(t, state.Result)

		// No settlement at deal time, whatever was dealt.
		assert.True(t, ledgerRepo.balances["u1"][1].Equal(decimal.NewFromInt(100)))
	})

	t.Run("censors dealer hand", func(t *testing.T) {
		engine, ledgerRepo, _ := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))

		state, err := engine.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		assert.Equal(t, "??", state.DealerHand[1])
		assert.Zero(t, state.DealerValue)
	})

	t.Run("rejects non gamble currency", func(t *testing.T) {
		engine, ledgerRepo, _ := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 2, decimal.NewFromInt(100))

		_, err := engine.Start(ctx, "u1", 2, bet)
		_, ok := economy.AsValidation(err)
		assert.True(t, ok)
	})

	t.Run("rejects bet over balance", func(t *testing.T) {
		engine, ledgerRepo, _ := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(5))

		_, err := engine.Start(ctx, "u1", 1, bet)
		assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	})

	t.Run("rejects second active game", func(t *testing.T) {
		engine, ledgerRepo, _ := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))

		_, err := engine.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		_, err = engine.Start(ctx, "u1", 1, bet)
		assert.ErrorIs(t, err, economy.ErrConflict)
	})

	t.Run("racing start loses at the store", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		stale := NewEngine(&staleActiveReadRepo{gameRepo}, engine.currencies, engine.ledger, engine.rand)

		_, err := stale.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		_, err = stale.Start(ctx, "u1", 1, bet)
		assert.ErrorIs(t, err, economy.ErrConflict)
		assert.Len(t, gameRepo.games, 1)
	})

	t.Run("lapsed game frees the slot", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))

		state, err := engine.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		gameRepo.games[state.Code].ExpiresAt = time.Now().Add(-time.Minute)

		next, err := engine.Start(ctx, "u1", 1, bet)
		require.NoError(t, err)
		assert.NotEqual(t, state.Code, next.Code)
	})
}

// staleActiveReadRepo never sees an active game, forcing Start past the
// pre-check so the store's slot claim decides.
type staleActiveReadRepo struct {
	*fakeGameRepo
}

func (s *staleActiveReadRepo) GetActiveByUser(_ context.Context, _ string, _ time.Time) (*models.BlackjackGame, error) {
	return nil, nil
}

func TestEngineAct(t *testing.T) {
	ctx := context.Background()
	bet := decimal.NewFromInt(10)

	// seed a game directly so hands are deterministic
	startGame := func(repo *fakeGameRepo, userHand, dealerHand []string) *models.BlackjackGame {
		game := &models.BlackjackGame{
			Code:        "BJTEST",
			UserID:      "u1",
			CurrencyID:  1,
			Bet:         bet,
			UserHand:    userHand,
			DealerHand:  dealerHand,
			UserValue:   handValue(userHand),
			DealerValue: handValue(dealerHand),
			ExpiresAt:   time.Now().Add(Window),
		}
		stored := *game
		repo.games[game.Code] = &stored
		return game
	}

	t.Run("stand settles and pays a win", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		startGame(gameRepo, []string{"K♠", "Q♥"}, []string{"K♦", "8♣"})

		state, err := engine.Act(ctx, "BJTEST", ActionStand)
		require.NoError(t, err)
		require.NotNil(t, state.Result)
		assert.Equal(t, models.GameWin, *state.Result)
		assert.True(t, ledgerRepo.balances["u1"][1].Equal(decimal.NewFromInt(110)))
		require.Len(t, ledgerRepo.transactions, 1)
		assert.Equal(t, "Blackjack win", ledgerRepo.transactions[0].Note)
	})

	t.Run("bust loses the bet", func(t *testing.T) {
		// The scripted source draws 5♠, busting a twenty.
		engine, ledgerRepo, gameRepo := newTestEngine(&seqRand{vals: []int{3, 0}})
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		startGame(gameRepo, []string{"K♠", "Q♥"}, []string{"K♦", "8♣"})

		state, err := engine.Act(ctx, "BJTEST", ActionHit)
		require.NoError(t, err)
		require.NotNil(t, state.Result)
		assert.Equal(t, models.GameLose, *state.Result)
		assert.True(t, ledgerRepo.balances["u1"][1].Equal(decimal.NewFromInt(90)))
		require.Len(t, ledgerRepo.transactions, 1)
		assert.Equal(t, "Blackjack loss", ledgerRepo.transactions[0].Note)
	})

	t.Run("push moves nothing", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		startGame(gameRepo, []string{"K♠", "9♥"}, []string{"Q♦", "9♣"})

		state, err := engine.Act(ctx, "BJTEST", ActionStand)
		require.NoError(t, err)
		require.NotNil(t, state.Result)
		assert.Equal(t, models.GameTie, *state.Result)
		assert.True(t, ledgerRepo.balances["u1"][1].Equal(decimal.NewFromInt(100)))
		assert.Empty(t, ledgerRepo.transactions)
	})

	t.Run("settled game rejects further action", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		startGame(gameRepo, []string{"K♠", "Q♥"}, []string{"K♦", "8♣"})

		_, err := engine.Act(ctx, "BJTEST", ActionStand)
		require.NoError(t, err)
		_, err = engine.Act(ctx, "BJTEST", ActionStand)
		assert.ErrorIs(t, err, economy.ErrInvalidState)
	})

	t.Run("expired game rejects action", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		game := startGame(gameRepo, []string{"K♠", "Q♥"}, []string{"K♦", "8♣"})
		gameRepo.games[game.Code].ExpiresAt = time.Now().Add(-time.Minute)

		_, err := engine.Act(ctx, "BJTEST", ActionStand)
		assert.ErrorIs(t, err, economy.ErrExpired)
	})

	t.Run("unknown code", func(t *testing.T) {
		engine, _, _ := newTestEngine(economy.NewRand())
		_, err := engine.Act(ctx, "BJNOPE", ActionStand)
		assert.ErrorIs(t, err, economy.ErrNotFound)
	})

	t.Run("revealed dealer hand after settlement", func(t *testing.T) {
		engine, ledgerRepo, gameRepo := newTestEngine(economy.NewRand())
		ledgerRepo.setBalance("u1", 1, decimal.NewFromInt(100))
		startGame(gameRepo, []string{"K♠", "Q♥"}, []string{"K♦", "8♣"})

		state, err := engine.Act(ctx, "BJTEST", ActionStand)
		require.NoError(t, err)
		assert.Equal(t, []string{"K♦", "8♣"}, state.DealerHand)
		assert.Equal(t, 18, state.DealerValue)
	})
}
