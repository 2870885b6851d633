package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/jobfit/internal/app"
	"github.com/joseph-ayodele/jobfit/internal/async"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/ingest"
	"github.com/joseph-ayodele/jobfit/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	httpApp := server.NewHTTP(server.Deps{
		Queue:     queue,
		Processor: a.Processor,
		Store:     a.Repo,
		Exporter:  a.Exporter,
		DB:        a.DB,
	}, server.HTTPConfig{
		APIKey:    cfg.Server.APIKey,
		RateLimit: cfg.Server.RateLimit,
	}, logger)

	health := server.NewHealth(a.DB, logger)
	grpcServer := server.NewGRPCServer(health)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpApp.Listen(cfg.Server.HTTPAddr); err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		health.Watch(gctx, 15*time.Second)
		return nil
	})
	if dir := cfg.Pipeline.WatchDir; dir != "" {
		g.Go(func() error {
			logger.Info("watching for postings", "dir", dir)
			return ingest.Watch(gctx, ingest.WatchConfig{
				Roots:       []string{dir},
				InitialScan: true,
				Debounce:    500 * time.Millisecond,
				SkipHidden:  true,
			}, queue, logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpApp.ShutdownWithContext(sctx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		queue.Shutdown(sctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("jobfitd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
