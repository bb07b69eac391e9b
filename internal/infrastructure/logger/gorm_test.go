package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return `SELECT * FROM "bulk_process_logs"`, 3 }

	t.Run("query logged at debug with context fields", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Info)
		ctx := WithRequestID(context.Background(), "req-9")

		gl.Trace(ctx, time.Now(), sqlFn, nil)

		entries := logs.FilterMessage("SQL Query").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
			assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
		}
	})

	t.Run("record not found ignored", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("errors logged", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Equal(t, 1, logs.FilterMessage("SQL Error").Len())
	})

	t.Run("slow query warned", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
		assert.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "SLOW SQL")
	})

	t.Run("silent", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	log, _ := observedLogger()
	gl := NewGormLogger(log, gormlogger.Warn)
	quiet := gl.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Silent, quiet.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
