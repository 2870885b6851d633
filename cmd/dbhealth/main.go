package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/app"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, time.Second); err != nil {
		logger.Error("DB health: FAIL", "error", err)
		os.Exit(1)
	}
	logger.Info("DB health: OK", "driver", db.Driver)

	apps, err := repository.NewApplicationRepository(db, logger).ListRecent(ctx, 10)
	if err != nil {
		logger.Error("listing applications", "error", err)
		os.Exit(1)
	}
	logger.Info("recent applications", "count", len(apps))
	for _, a := range apps {
		logger.Info("application", "key", a.Key, "company", a.Company, "position", a.PositionName, "skills", len(a.Skills))
	}
}
