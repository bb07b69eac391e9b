// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling for the bulk runner processes.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

// Providers owns the telemetry pipelines of one process. Pipelines that are
// disabled stay nil and fall back to the global no-op implementations.
type Providers struct {
	cfg      config.TelemetryConfig
	logger   *zap.Logger
	tracer   *sdktrace.TracerProvider
	meter    *sdkmetric.MeterProvider
	logs     *sdklog.LoggerProvider
	profiler *pyroscope.Profiler
}

// Setup starts the pipelines enabled in cfg and installs them globally
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	p := &Providers{cfg: cfg, logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.startTracing(ctx, res); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled {
		if err := p.startMetrics(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}
	if cfg.LogsEnabled {
		if err := p.startLogs(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}
	if cfg.ProfilingEnabled {
		if err := p.startProfiling(); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}

	logger.Info("Telemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("logs", cfg.LogsEnabled),
		zap.Bool("profiling", cfg.ProfilingEnabled),
	)
	return p, nil
}

func (p *Providers) startTracing(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.cfg.CollectorEndpoint)}
	if p.cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.cfg.SamplingRatio))),
	)
	otel.SetTracerProvider(p.tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func (p *Providers) startMetrics(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.cfg.CollectorEndpoint)}
	if p.cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	p.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(p.cfg.MetricsInterval),
		)),
	)
	otel.SetMeterProvider(p.meter)
	return nil
}

func (p *Providers) startLogs(ctx context.Context, res *resource.Resource) error {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(p.cfg.CollectorEndpoint)}
	if p.cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	p.useLoggerProvider(sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	))
	return nil
}

// useLoggerProvider installs lp for the zap bridge and as the global provider
// so libraries logging through the OTel API reach the same exporter.
func (p *Providers) useLoggerProvider(lp *sdklog.LoggerProvider) {
	p.logs = lp
	global.SetLoggerProvider(lp)
}

// startProfiling runs Pyroscope and links CPU samples to trace spans
func (p *Providers) startProfiling() error {
	tags := map[string]string{}
	if hostname, err := os.Hostname(); err == nil {
		tags["hostname"] = hostname
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: p.cfg.ServiceName,
		ServerAddress:   p.cfg.ProfilingServer,
		Logger:          pyroscopeLogger{p.logger.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	if p.tracer != nil {
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(p.tracer))
	}
	return nil
}

// Meter returns a meter from the configured provider or the global one
func (p *Providers) Meter(name string) metric.Meter {
	if p.meter != nil {
		return p.meter.Meter(name)
	}
	return otel.GetMeterProvider().Meter(name)
}

// BridgeLogger returns base teed into the OTLP log pipeline. Without a log
// pipeline base is returned unchanged.
func (p *Providers) BridgeLogger(base *zap.Logger, level zapcore.Level) *zap.Logger {
	if p.logs == nil {
		return base
	}
	otelCore := otelzap.NewCore(p.cfg.ServiceName, otelzap.WithLoggerProvider(p.logs))
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, levelFilter{Core: otelCore, min: level})
	}))
}

// Shutdown flushes and stops every running pipeline
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
	}
	if p.profiler != nil {
		errs = append(errs, p.profiler.Stop())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}

// levelFilter drops entries below min before they reach the wrapped core
type levelFilter struct {
	zapcore.Core
	min zapcore.Level
}

func (f levelFilter) Enabled(lvl zapcore.Level) bool {
	return lvl >= f.min && f.Core.Enabled(lvl)
}

func (f levelFilter) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !f.Enabled(entry.Level) {
		return ce
	}
	return f.Core.Check(entry, ce)
}

func (f levelFilter) With(fields []zapcore.Field) zapcore.Core {
	return levelFilter{Core: f.Core.With(fields), min: f.min}
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
