package telemetry

import (
	"context"
	"fmt"

	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InstrumentDB adds otelgorm query spans to db when database tracing is
// enabled, and reports connection pool usage on meter when meter is non-nil
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) error {
	if cfg.Enabled && cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm: %w", err)
		}
		logger.Info("Database tracing enabled", zap.Bool("log_full_sql", cfg.DBLogFullSQL))
	}

	if meter == nil {
		return nil
	}
	return registerPoolMetrics(db, meter)
}

func registerPoolMetrics(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database pool connections by state"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Total number of connections waited for"),
		metric.WithUnit("{waits}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool wait counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, connections, waits)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}
