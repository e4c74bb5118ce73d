package hearth

import (
	"context"
	"log/slog"

	"github.com/hearthgate/hearth/hearth/auth"
	"github.com/hearthgate/hearth/hearth/database"
	"github.com/hearthgate/hearth/hearth/database/repositories"
	"github.com/hearthgate/hearth/hearth/economy"
	"github.com/hearthgate/hearth/hearth/economy/blackjack"
	"github.com/hearthgate/hearth/hearth/economy/cooldown"
	"github.com/hearthgate/hearth/hearth/economy/exchange"
	"github.com/hearthgate/hearth/hearth/economy/jobs"
	"github.com/hearthgate/hearth/hearth/economy/ledger"
	"github.com/hearthgate/hearth/hearth/housekeeping"
	"github.com/hearthgate/hearth/hearth/server"
)

// App wires the store, the economy managers, the HTTP adapter and the
// housekeeping sweeper into one runnable unit.
type App struct {
	Cfg     *Config
	DB      *database.DB
	Server  *server.Server
	Sweeper *housekeeping.Sweeper

	Version string
	Commit  string
}

func New(ctx context.Context, cfg *Config, version string, commit string) (*App, error) {
	db, err := database.New(ctx, database.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	bunDB := db.BunDB()
	currencyRepo := repositories.NewCurrencyRepository(bunDB)
	ledgerRepo := repositories.NewLedgerRepository(bunDB)
	cooldownRepo := repositories.NewCooldownRepository(bunDB)
	jobRepo := repositories.NewJobRepository(bunDB)
	exchangeRepo := repositories.NewExchangeRepository(bunDB)
	blackjackRepo := repositories.NewBlackjackRepository(bunDB)

	rand := economy.NewRand()
	ledgerManager := ledger.New(ledgerRepo, currencyRepo)
	gate := cooldown.NewGate(cooldownRepo)
	jobManager := jobs.NewManager(jobRepo, currencyRepo, ledgerManager, gate, rand)
	exchangeManager := exchange.NewManager(exchangeRepo, currencyRepo, ledgerManager)
	blackjackEngine := blackjack.NewEngine(blackjackRepo, currencyRepo, ledgerManager, rand)

	resolver, err := auth.NewDiscordResolver()
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := server.New(cfg.Server.Addr(), server.Deps{
		Resolver:   resolver,
		Gate:       auth.NewBanList(cfg.Economy.BannedUsers),
		Currencies: currencyRepo,
		Ledger:     ledgerManager,
		Jobs:       jobManager,
		Exchange:   exchangeManager,
		Blackjack:  blackjackEngine,
	})

	return &App{
		Cfg:     cfg,
		DB:      db,
		Server:  srv,
		Sweeper: housekeeping.NewSweeper(cooldownRepo, exchangeRepo, blackjackRepo),
		Version: version,
		Commit:  commit,
	}, nil
}

func (a *App) Close() {
	slog.Info("Shutting down")
	if err := a.Server.Shutdown(); err != nil {
		slog.Error("Failed to shut down server", slog.Any("error", err))
	}
	a.Sweeper.Stop()
	a.DB.Close()
}
