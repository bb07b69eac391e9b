package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NotNil(t, p.Meter("test"))
	base := zap.NewNop()
	assert.Same(t, base, p.BridgeLogger(base, zapcore.InfoLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestUseLoggerProvider_RegistersGlobal(t *testing.T) {
	previous := global.GetLoggerProvider()
	t.Cleanup(func() { global.SetLoggerProvider(previous) })

	lp := sdklog.NewLoggerProvider()
	p := &Providers{cfg: config.TelemetryConfig{ServiceName: "bulk-test"}}
	p.useLoggerProvider(lp)

	assert.Same(t, lp, p.logs)
	assert.Same(t, lp, global.GetLoggerProvider())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilter(t *testing.T) {
	core := levelFilter{Core: zapcore.NewNopCore(), min: zapcore.WarnLevel}
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	filtered := core.With([]zapcore.Field{zap.String("k", "v")})
	assert.IsType(t, levelFilter{}, filtered)
}

func TestInstrumentDB_PoolMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	provider, reader := newTestMeter(t)
	require.NoError(t, InstrumentDB(db, config.TelemetryConfig{}, provider.Meter("test"), zaptest.NewLogger(t)))

	metrics := collect(t, reader)
	gauge, ok := metrics["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, gauge.DataPoints, 3)
}

func TestInstrumentDB_NoMeter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.NoError(t, InstrumentDB(db, config.TelemetryConfig{}, nil, zap.NewNop()))
}
