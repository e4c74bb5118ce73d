// Package database owns the connection pool, schema creation, and reference
// data seeding for the economy store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/hearthgate/hearth/hearth/database/models"
)

const defaultConnTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	PoolSize int
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(cfg)}, nil
}

func buildConnString(cfg Config) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		int(defaultConnTimeout.Seconds()),
	)
}

func newBunDB(cfg Config) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Close() {
	if db.bunDB != nil {
		db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitializeSchema creates all tables and indexes, then seeds reference data.
// Safe to run on every startup.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Currency)(nil),
		(*models.UserBalance)(nil),
		(*models.Transaction)(nil),
		(*models.Job)(nil),
		(*models.UserJob)(nil),
		(*models.Cooldown)(nil),
		(*models.CurrencyExchange)(nil),
		(*models.BlackjackGame)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_balances_user_currency ON user_balances(user_id, currency_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cooldowns_user_type ON cooldowns(user_id, cooldown_type);",
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_currency ON transactions(user_id, currency_id, created_at DESC);",
		// One unresolved intent per user, enforced by the store itself; the
		// repositories claim the slot with ON CONFLICT on these indexes.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_currency_exchanges_active ON currency_exchanges(user_id) WHERE result IS NULL;",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_blackjack_games_active ON blackjack_games(user_id) WHERE result IS NULL;",
		"CREATE INDEX IF NOT EXISTS idx_cooldowns_expires ON cooldowns(expires_at);",
	}
	for _, idx := range indexes {
		if _, err := db.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.InitializeReferenceData(ctx); err != nil {
		return fmt.Errorf("failed to initialize reference data: %w", err)
	}

	slog.Info("Database schema initialized", slog.String("type", "db"))
	return nil
}

// InitializeReferenceData seeds the default currencies and jobs once; an
// already-populated table is left untouched so administrator edits survive
// restarts.
func (db *DB) InitializeReferenceData(ctx context.Context) error {
	var currencyCount int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM currencies").Scan(&currencyCount)
	if err != nil {
		return fmt.Errorf("failed to count currencies: %w", err)
	}
	if currencyCount == 0 {
		if _, err := db.bunDB.NewInsert().Model(&defaultCurrencies).Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed currencies: %w", err)
		}
		slog.Info("Default currencies seeded",
			slog.String("type", "db"),
			slog.Int("count", len(defaultCurrencies)))
	}

	var jobCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs").Scan(&jobCount)
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}
	if jobCount == 0 {
		if _, err := db.bunDB.NewInsert().Model(&defaultJobs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed jobs: %w", err)
		}
		slog.Info("Default jobs seeded",
			slog.String("type", "db"),
			slog.Int("count", len(defaultJobs)))
	}

	return nil
}

var defaultCurrencies = []models.Currency{
	{
		Name:            "embers",
		DisplayName:     "Embers",
		Prefix:          "⟡",
		Color:           "#e25822",
		DecimalPlaces:   2,
		CanExchange:     true,
		CanGamble:       true,
		CanWorkFor:      true,
		ExchangeRate:    decimal.NewFromInt(1),
		ValueMultiplier: decimal.NewFromInt(1),
		StartingValue:   decimal.NewFromInt(100),
	},
	{
		Name:            "shards",
		DisplayName:     "Shards",
		Prefix:          "◈",
		Color:           "#44bdd0",
		DecimalPlaces:   0,
		CanExchange:     true,
		CanGamble:       false,
		CanWorkFor:      true,
		ExchangeRate:    decimal.NewFromInt(4),
		ValueMultiplier: decimal.NewFromInt(10),
		StartingValue:   decimal.NewFromInt(10),
	},
	{
		Name:            "marks",
		DisplayName:     "Service Marks",
		Prefix:          "✠",
		Color:           "#c9a227",
		DecimalPlaces:   1,
		CanExchange:     false,
		CanGamble:       false,
		CanWorkFor:      false,
		ExchangeRate:    decimal.NewFromInt(1),
		ValueMultiplier: decimal.NewFromInt(1),
		StartingValue:   decimal.Zero,
	},
}

var defaultJobs = []models.Job{
	{Name: "courier", DisplayName: "Courier", MinPay: 40, MaxPay: 120, Cooldown: 3600},
	{Name: "archivist", DisplayName: "Archivist", MinPay: 60, MaxPay: 100, Cooldown: 3600},
	{Name: "gatekeeper", DisplayName: "Gatekeeper", MinPay: 80, MaxPay: 200, Cooldown: 7200},
	{Name: "lamplighter", DisplayName: "Lamplighter", MinPay: 20, MaxPay: 220, Cooldown: 1800},
}
