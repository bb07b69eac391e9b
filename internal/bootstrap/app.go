// Package bootstrap assembles the bulk action runner and its infrastructure
// from the application config. cmd/server, cmd/worker and cmd/bulkctl share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/cache"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/jobqueue"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/infrastructure/persistence"
	"github.com/tradecomply/backend/internal/infrastructure/storage"
	"github.com/tradecomply/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/tradecomply/backend"

// App holds the wired runner and everything it depends on
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Providers
	DB        *persistence.Database
	Redis     *redis.Client
	Store     bulkapp.BlobStore

	// Exactly one of Pool and Queue is set, matching jobs.backend
	Pool  *jobqueue.Pool
	Queue *jobqueue.RedisQueue

	Runner      *bulkapp.Runner
	Replay      *bulkapp.ReplayHandler
	ProcessLogs *bulkapp.ProcessLogQueryService
	Users       identity.UserRepository

	closers []func(context.Context) error
}

// New connects every backend named by cfg and wires the runner. base is the
// process logger; New tees it into the OTLP log pipeline when enabled. On
// error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, base *zap.Logger) (app *App, err error) {
	app = &App{Config: cfg, Logger: base}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if err = app.setupTelemetry(ctx); err != nil {
		return app, err
	}
	if err = app.setupDatabase(ctx); err != nil {
		return app, err
	}
	if err = app.setupStore(ctx); err != nil {
		return app, err
	}
	if cfg.Jobs.Backend == "redis" {
		if cfg.Storage.Backend == "memory" {
			app.Logger.Warn("redis jobs with the memory blob store only replay in the submitting process")
		}
		client, rerr := cache.NewRedisClient(ctx, cfg.Redis)
		if rerr != nil {
			return app, rerr
		}
		app.Redis = client
		app.onClose(func(context.Context) error { return client.Close() })
	}
	err = app.setupRunner()
	return app, err
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) setupTelemetry(ctx context.Context) error {
	providers, err := telemetry.Setup(ctx, a.Config.Telemetry, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	a.Telemetry = providers
	a.onClose(providers.Shutdown)
	a.Logger = providers.BridgeLogger(a.Logger, logger.ParseLevel(a.Config.Log.Level))
	return nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	var opts []logger.GormLoggerOption
	if thresh := a.Config.Telemetry.DBSlowQueryThresh; thresh > 0 {
		opts = append(opts, logger.WithSlowThreshold(thresh))
	}
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(a.Config.Log.Level), opts...)
	db, err := persistence.Open(ctx, &a.Config.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db
	a.onClose(func(context.Context) error { return db.Close() })

	if err := telemetry.InstrumentDB(db.DB, a.Config.Telemetry, a.meterOrNil(), a.Logger); err != nil {
		return err
	}
	a.Logger.Info("Database connected successfully")
	return nil
}

func (a *App) setupStore(ctx context.Context) error {
	if a.Config.Storage.Backend != "s3" {
		a.Logger.Info("using in-memory blob store")
		a.Store = storage.NewMemoryBlobStore()
		return nil
	}
	s3Store, err := storage.NewS3BlobStore(&a.Config.Storage, storage.WithLogger(a.Logger))
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	for _, bucket := range []string{a.Config.Bulk.SnapshotBucket, a.Config.Bulk.TestEnvironmentBucket} {
		if err := s3Store.EnsureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	a.Store = s3Store
	return nil
}

func (a *App) setupRunner() error {
	cfg := a.Config
	meter := a.Telemetry.Meter(meterName)

	bulkMetrics, err := telemetry.NewBulkMetrics(telemetry.BulkMetricsConfig{Meter: meter, Logger: a.Logger})
	if err != nil {
		return err
	}
	jobMetrics, err := telemetry.NewJobMetrics(meter)
	if err != nil {
		return err
	}

	var dispatcher bulkapp.JobDispatcher
	queueCfg := jobqueue.ConfigFrom(cfg.Jobs)
	switch cfg.Jobs.Backend {
	case "redis":
		queue, err := jobqueue.NewRedisQueue(a.Redis, queueCfg, a.Logger, jobqueue.WithMetrics(jobMetrics))
		if err != nil {
			return err
		}
		a.Queue, dispatcher = queue, queue
	default:
		a.Pool = jobqueue.NewPool(queueCfg, a.Logger, jobqueue.WithMetrics(jobMetrics))
		dispatcher = a.Pool
	}

	forwarder := storage.NewTestEnvironmentForwarder(a.Store,
		cfg.Bulk.TestEnvironmentBucket, cfg.Bulk.TestEnvironmentPrefix, a.Logger)
	registry := bulkapp.NewRegistry(
		bulkapp.NewCommentAction(),
		bulkapp.NewOrderUpdateAction(),
		bulkapp.NewSendToTestAction(a.Store, forwarder, a.Logger),
	)

	a.Runner = bulkapp.NewRunner(
		persistence.NewGormTransactionScope(a.DB.DB),
		persistence.NewGormSearchRunRepository(a.DB.DB),
		a.Store,
		dispatcher,
		registry,
		bulkapp.RunnerConfig{
			Bucket:     cfg.Bulk.SnapshotBucket,
			Prefix:     cfg.Bulk.SnapshotPrefix,
			MaxResults: cfg.Bulk.MaxResults,
		},
		bulkapp.WithRunnerLogger(a.Logger),
		bulkapp.WithBulkMetrics(bulkMetrics),
	)

	var redisClient redis.UniversalClient
	if a.Redis != nil {
		redisClient = a.Redis
	}
	idempotency, err := cache.NewIdempotencyStore(cfg.Jobs.Backend, redisClient, a.Logger)
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return idempotency.Close() })

	a.Replay = bulkapp.NewReplayHandler(a.Runner, idempotency, shared.IdempotencyConfig{
		TTL:     cfg.Bulk.IdempotencyTTL,
		Enabled: true,
	}, a.Logger)
	handler := telemetry.InstrumentJob(bulkapp.ReplayJobName, a.Replay.Handle, bulkapp.ArgAction)
	if a.Queue != nil {
		a.Queue.Register(bulkapp.ReplayJobName, handler)
	} else {
		a.Pool.Register(bulkapp.ReplayJobName, handler)
	}

	a.ProcessLogs = bulkapp.NewProcessLogQueryService(persistence.NewGormProcessLogRepository(a.DB.DB))
	a.Users = persistence.NewGormUserRepository(a.DB.DB)
	return nil
}

func (a *App) meterOrNil() metric.Meter {
	if !a.Config.Telemetry.Enabled || !a.Config.Telemetry.MetricsEnabled {
		return nil
	}
	return a.Telemetry.Meter(meterName)
}

// StartPool starts the in-process workers of the memory backend. It is a
// no-op for the redis backend, whose jobs are consumed by cmd/worker.
func (a *App) StartPool(ctx context.Context) error {
	if a.Pool == nil {
		return nil
	}
	if err := a.Pool.Start(ctx); err != nil {
		return err
	}
	a.onClose(a.Pool.Stop)
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
