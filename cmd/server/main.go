package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradecomply/backend/internal/bootstrap"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/interfaces/http/handler"
	"github.com/tradecomply/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Trade Compliance Bulk Action API
//	@version		1.0
//	@description	Submits bulk actions over trade compliance records and reports their process logs.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	UserID
//	@in							header
//	@name						X-User-ID

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

	log.Info("Starting bulk action server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("jobs_backend", cfg.Jobs.Backend),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	log = app.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	if err := app.StartPool(context.Background()); err != nil {
		log.Fatal("Failed to start job pool", zap.Error(err))
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     cfg.Telemetry.Enabled,
	}, router.Handlers{
		Bulk:        handler.NewBulkActionHandler(app.Runner, app.Users),
		ProcessLogs: handler.NewProcessLogHandler(app.ProcessLogs),
		System:      handler.NewSystemHandler(cfg.App.Name, version, app.DB),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
		stop()
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Server exited gracefully")
}
