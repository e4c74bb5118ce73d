package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy/blackjack"
)

type currencyView struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	DisplayName   string          `json:"display_name"`
	Prefix        string          `json:"prefix"`
	Color         string          `json:"color"`
	DecimalPlaces int32           `json:"decimal_places"`
	CanExchange   bool            `json:"can_exchange"`
	CanGamble     bool            `json:"can_gamble"`
	CanWorkFor    bool            `json:"can_work_for"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	StartingValue decimal.Decimal `json:"starting_value"`
}

func newCurrencyView(c *models.Currency) currencyView {
	return currencyView{
		ID:            c.ID,
		Name:          c.Name,
		DisplayName:   c.DisplayName,
		Prefix:        c.Prefix,
		Color:         c.Color,
		DecimalPlaces: c.DecimalPlaces,
		CanExchange:   c.CanExchange,
		CanGamble:     c.CanGamble,
		CanWorkFor:    c.CanWorkFor,
		ExchangeRate:  c.ExchangeRate,
		StartingValue: c.StartingValue,
	}
}

func newCurrencyViews(currencies []*models.Currency) []currencyView {
	views := make([]currencyView, 0, len(currencies))
	for _, c := range currencies {
		views = append(views, newCurrencyView(c))
	}
	return views
}

type balanceView struct {
	CurrencyID int64           `json:"currency_id"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	Formatted  string          `json:"formatted"`
}

func newBalanceViews(balances []*models.UserBalance) []balanceView {
	views := make([]balanceView, 0, len(balances))
	for _, b := range balances {
		view := balanceView{
			CurrencyID: b.CurrencyID,
			Balance:    b.Balance,
		}
		if b.Currency != nil {
			view.Currency = b.Currency.Name
			view.Formatted = b.Currency.Format(b.Balance)
		}
		views = append(views, view)
	}
	return views
}

type transactionView struct {
	Reference  string          `json:"reference"`
	CurrencyID int64           `json:"currency_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}

func newTransactionViews(transactions []*models.Transaction) []transactionView {
	views := make([]transactionView, 0, len(transactions))
	for _, t := range transactions {
		views = append(views, transactionView{
			Reference:  t.Reference,
			CurrencyID: t.CurrencyID,
			Amount:     t.Amount,
			Note:       t.Note,
			CreatedAt:  t.CreatedAt,
		})
	}
	return views
}

type jobView struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	DisplayName          string `json:"display_name"`
	MinPay               int64  `json:"min_pay"`
	MaxPay               int64  `json:"max_pay"`
	CooldownSeconds      int64  `json:"cooldown_seconds"`
	OverriddenCurrencyID *int64 `json:"overridden_currency_id,omitempty"`
}

func newJobView(j *models.Job) jobView {
	return jobView{
		ID:                   j.ID,
		Name:                 j.Name,
		DisplayName:          j.DisplayName,
		MinPay:               j.MinPay,
		MaxPay:               j.MaxPay,
		CooldownSeconds:      j.Cooldown,
		OverriddenCurrencyID: j.OverriddenCurrencyID,
	}
}

func newJobViews(jobs []*models.Job) []jobView {
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, newJobView(j))
	}
	return views
}

type userJobView struct {
	Job        jobView   `json:"job"`
	Currency   string    `json:"currency"`
	CurrencyID int64     `json:"currency_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

func newUserJobView(uj *models.UserJob) userJobView {
	view := userJobView{
		CurrencyID: uj.CurrencyID,
		AssignedAt: uj.AssignedAt,
	}
	if uj.Job != nil {
		view.Job = newJobView(uj.Job)
	}
	if uj.Currency != nil {
		view.Currency = uj.Currency.Name
	}
	return view
}

type exchangeView struct {
	Code       string          `json:"code"`
	FromID     int64           `json:"currency_from_id"`
	ToID       int64           `json:"currency_to_id"`
	AmountFrom decimal.Decimal `json:"amount_from"`
	AmountTo   decimal.Decimal `json:"amount_to"`
	Rate       decimal.Decimal `json:"rate"`
	Quote      string          `json:"quote,omitempty"`
	Result     *string         `json:"result,omitempty"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

func newExchangeView(e *models.CurrencyExchange) exchangeView {
	view := exchangeView{
		Code:       e.Code,
		FromID:     e.CurrencyFromID,
		ToID:       e.CurrencyToID,
		AmountFrom: e.AmountFrom,
		AmountTo:   e.AmountTo,
		Rate:       e.Rate,
		ExpiresAt:  e.ExpiresAt,
	}
	if e.CurrencyFrom != nil && e.CurrencyTo != nil {
		view.Quote = e.CurrencyFrom.Format(e.AmountFrom) + " -> " + e.CurrencyTo.Format(e.AmountTo)
	}
	if e.Result != nil {
		result := string(*e.Result)
		view.Result = &result
	}
	return view
}

type gameView struct {
	Code        string          `json:"code"`
	Currency    string          `json:"currency"`
	Bet         decimal.Decimal `json:"bet"`
	UserHand    []string        `json:"user_hand"`
	UserValue   int             `json:"user_value"`
	DealerHand  []string        `json:"dealer_hand"`
	DealerValue int             `json:"dealer_value"`
	Result      *string         `json:"result,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

func newGameView(s *blackjack.State) gameView {
	view := gameView{
		Code:        s.Code,
		Bet:         s.Bet,
		UserHand:    s.UserHand,
		UserValue:   s.UserValue,
		DealerHand:  s.DealerHand,
		DealerValue: s.DealerValue,
		ExpiresAt:   s.ExpiresAt,
	}
	if s.Currency != nil {
		view.Currency = s.Currency.Name
	}
	if s.Result != nil {
		result := string(*s.Result)
		view.Result = &result
	}
	return view
}
