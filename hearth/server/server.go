// Package server is the fiber HTTP adapter over the economy engine. It owns
// transport framing only: auth middleware, request decoding, and the mapping
// from the engine's error taxonomy to response codes.
package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hearthgate/hearth/hearth/auth"
	"github.com/hearthgate/hearth/hearth/database/repositories"
	"github.com/hearthgate/hearth/hearth/economy/blackjack"
	"github.com/hearthgate/hearth/hearth/economy/exchange"
	"github.com/hearthgate/hearth/hearth/economy/jobs"
	"github.com/hearthgate/hearth/hearth/economy/ledger"
)

// Deps are the collaborators the HTTP adapter fronts.
type Deps struct {
	Resolver   auth.Resolver
	Gate       auth.PermissionGate
	Currencies repositories.CurrencyRepository
	Ledger     *ledger.Ledger
	Jobs       *jobs.Manager
	Exchange   *exchange.Manager
	Blackjack  *blackjack.Engine
}

type Server struct {
	app  *fiber.App
	addr string

	resolver   auth.Resolver
	gate       auth.PermissionGate
	currencies repositories.CurrencyRepository
	ledger     *ledger.Ledger
	jobs       *jobs.Manager
	exchange   *exchange.Manager
	blackjack  *blackjack.Engine
}

func New(addr string, deps Deps) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "hearth",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}),
		addr:       addr,
		resolver:   deps.Resolver,
		gate:       deps.Gate,
		currencies: deps.Currencies,
		ledger:     deps.Ledger,
		jobs:       deps.Jobs,
		exchange:   deps.Exchange,
		blackjack:  deps.Blackjack,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)

	economy := s.app.Group("/economy", RequireUser(s))

	economy.Get("/currencies", s.handleListCurrencies)
	economy.Get("/balances", s.handleListBalances)
	economy.Get("/transactions", s.handleListTransactions)
	economy.Post("/gift", s.handleGift)

	jobGroup := economy.Group("/jobs")
	jobGroup.Get("/", s.handleListJobs)
	jobGroup.Get("/current", s.handleCurrentJob)
	jobGroup.Post("/apply", s.handleApplyJob)
	jobGroup.Post("/quit", s.handleQuitJob)
	jobGroup.Post("/work", s.handleWork)

	exchangeGroup := economy.Group("/exchange")
	exchangeGroup.Post("/", s.handleStartExchange)
	exchangeGroup.Post("/:code", s.handleResolveExchange)

	blackjackGroup := economy.Group("/blackjack")
	blackjackGroup.Get("/current", s.handleCurrentGame)
	blackjackGroup.Post("/", s.handleStartGame)
	blackjackGroup.Post("/:code", s.handleActGame)
}

// Listen blocks serving requests until Shutdown.
func (s *Server) Listen() error {
	slog.Info("HTTP server listening",
		slog.String("type", "http"),
		slog.String("addr", s.addr))
	return s.app.Listen(s.addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}
