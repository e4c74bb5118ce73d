package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthgate/hearth/hearth"
	"github.com/hearthgate/hearth/hearth/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := hearth.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(newLogHandler(cfg.Log)))
	slog.Info("Starting Hearth economy engine",
		slog.String("version", version),
		slog.String("commit", commit))

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := hearth.New(ctx, cfg, version, commit)
	if err != nil {
		slog.Error("Failed to start",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(startTime)))
		os.Exit(-1)
	}
	slog.Info("Store ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(startTime)))

	if err := app.Sweeper.Start(); err != nil {
		slog.Error("Failed to start sweeper", slog.Any("error", err))
		app.Close()
		os.Exit(-1)
	}

	var group errgroup.Group
	group.Go(app.Server.Listen)

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	app.Close()
	if err := group.Wait(); err != nil {
		slog.Error("Shutdown finished with error", slog.Any("error", err))
	}
}

func newLogHandler(cfg hearth.LogConfig) slog.Handler {
	if cfg.Format == "json" {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})
	}
	return logger.NewHandler("hearth", cfg.Level)
}
