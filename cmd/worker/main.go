// Command worker consumes bulk replay jobs from the Redis queue.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradecomply/backend/internal/bootstrap"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Jobs.Backend != "redis" {
		log.Fatal("Worker requires jobs.backend = redis; the memory backend runs jobs inside the server",
			zap.String("jobs_backend", cfg.Jobs.Backend),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	log = app.Logger
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	if stats, err := app.Queue.Stats(ctx); err == nil {
		log.Info("Queue state at startup",
			zap.Int64("pending", stats.Pending),
			zap.Int64("delayed", stats.Delayed),
			zap.Int64("dead", stats.Dead),
		)
	}

	if err := app.Queue.Run(ctx); err != nil {
		log.Error("Job consumer failed", zap.Error(err))
		return
	}
	log.Info("Worker exited gracefully")
}
