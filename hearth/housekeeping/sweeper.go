// Package housekeeping prunes rows the engine no longer needs: lapsed
// cooldowns and long-expired or settled exchanges and games. Correctness
// never depends on it; expiry is always re-checked at use time.
package housekeeping

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthgate/hearth/hearth/database/repositories"
)

// retention is how long terminal and expired rows stay queryable before the
// sweep removes them.
const retention = 24 * time.Hour

const sweepTimeout = time.Minute

type Sweeper struct {
	cron      *cron.Cron
	cooldowns repositories.CooldownRepository
	exchanges repositories.ExchangeRepository
	games     repositories.BlackjackRepository
}

func NewSweeper(
	cooldowns repositories.CooldownRepository,
	exchanges repositories.ExchangeRepository,
	games repositories.BlackjackRepository,
) *Sweeper {
	return &Sweeper{
		cron:      cron.New(),
		cooldowns: cooldowns,
		exchanges: exchanges,
		games:     games,
	}
}

// Start schedules the hourly sweep and runs one immediately.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweep()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	now := time.Now()
	cutoff := now.Add(-retention)

	cooldowns, err := s.cooldowns.DeleteExpired(ctx, now)
	if err != nil {
		slog.Error("Cooldown sweep failed", slog.String("type", "db"), slog.String("error", err.Error()))
	}
	exchanges, err := s.exchanges.DeleteResolvedOrExpiredBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Exchange sweep failed", slog.String("type", "db"), slog.String("error", err.Error()))
	}
	games, err := s.games.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Game sweep failed", slog.String("type", "db"), slog.String("error", err.Error()))
	}

	slog.Info("Housekeeping sweep complete",
		slog.String("type", "db"),
		slog.Int64("cooldowns", cooldowns),
		slog.Int64("exchanges", exchanges),
		slog.Int64("games", games))
}
