package server

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/hearthgate/hearth/hearth/economy/blackjack"
	"github.com/hearthgate/hearth/hearth/economy/exchange"
)

const defaultTransactionLimit = 50

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return sendSuccess(c, fiber.Map{"status": "ok"}, "")
}

func (s *Server) handleListCurrencies(c *fiber.Ctx) error {
	currencies, err := s.currencies.GetAll(c.UserContext())
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newCurrencyViews(currencies), "")
}

func (s *Server) handleListBalances(c *fiber.Ctx) error {
	balances, err := s.ledger.UserBalances(c.UserContext(), currentUserID(c))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newBalanceViews(balances), "")
}

func (s *Server) handleListTransactions(c *fiber.Ctx) error {
	currencyID, err := strconv.ParseInt(c.Query("currency_id"), 10, 64)
	if err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "currency_id is required", nil)
	}
	limit := c.QueryInt("limit", defaultTransactionLimit)

	transactions, err := s.ledger.Transactions(c.UserContext(), currentUserID(c), currencyID, limit)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newTransactionViews(transactions), "")
}

type giftRequest struct {
	ToUserID   string          `json:"to_user_id"`
	CurrencyID int64           `json:"currency_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *Server) handleGift(c *fiber.Ctx) error {
	var req giftRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	}

	err := s.ledger.Gift(c.UserContext(), currentUserID(c), req.ToUserID, req.CurrencyID, req.Amount)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, nil, "Gift sent")
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	jobs, err := s.jobs.List(c.UserContext())
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newJobViews(jobs), "")
}

func (s *Server) handleCurrentJob(c *fiber.Ctx) error {
	userJob, err := s.jobs.Current(c.UserContext(), currentUserID(c))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newUserJobView(userJob), "")
}

func (s *Server) handleApplyJob(c *fiber.Ctx) error {
	userJob, err := s.jobs.Apply(c.UserContext(), currentUserID(c))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendCreated(c, newUserJobView(userJob), "Job assigned")
}

func (s *Server) handleQuitJob(c *fiber.Ctx) error {
	if err := s.jobs.Quit(c.UserContext(), currentUserID(c)); err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, nil, "Job quit")
}

func (s *Server) handleWork(c *fiber.Ctx) error {
	currency, amount, err := s.jobs.Work(c.UserContext(), currentUserID(c))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, fiber.Map{
		"currency_id": currency.ID,
		"currency":    currency.Name,
		"amount":      amount,
		"formatted":   currency.Format(amount),
	}, "Paycheck received")
}

type startExchangeRequest struct {
	CurrencyFromID int64           `json:"currency_from_id"`
	CurrencyToID   int64           `json:"currency_to_id"`
	Amount         decimal.Decimal `json:"amount"`
}

func (s *Server) handleStartExchange(c *fiber.Ctx) error {
	var req startExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	}

	ex, err := s.exchange.Start(c.UserContext(), currentUserID(c), req.CurrencyFromID, req.CurrencyToID, req.Amount)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendCreated(c, newExchangeView(ex), "Exchange quoted")
}

type resolveRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleResolveExchange(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	}

	ex, err := s.exchange.Resolve(c.UserContext(), c.Params("code"), exchange.Action(req.Action))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newExchangeView(ex), "Exchange resolved")
}

type startGameRequest struct {
	CurrencyID int64           `json:"currency_id"`
	Bet        decimal.Decimal `json:"bet"`
}

func (s *Server) handleStartGame(c *fiber.Ctx) error {
	var req startGameRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	}

	state, err := s.blackjack.Start(c.UserContext(), currentUserID(c), req.CurrencyID, req.Bet)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendCreated(c, newGameView(state), "Game dealt")
}

func (s *Server) handleCurrentGame(c *fiber.Ctx) error {
	state, err := s.blackjack.Current(c.UserContext(), currentUserID(c))
	if err != nil {
		return sendDomainError(c, err)
	}
	if state == nil {
		return sendError(c, http.StatusNotFound, "NOT_FOUND", "No active game", nil)
	}
	return sendSuccess(c, newGameView(state), "")
}

func (s *Server) handleActGame(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	}

	state, err := s.blackjack.Act(c.UserContext(), c.Params("code"), blackjack.Action(req.Action))
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, newGameView(state), "")
}
