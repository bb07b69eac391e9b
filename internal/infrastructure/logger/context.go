package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	requestIDKey   contextKey = "request_id"
	userIDKey      contextKey = "user_id"
	actionTypeKey  contextKey = "action_type"
	snapshotKeyKey contextKey = "snapshot_key"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the request ID on ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID records the acting user on ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithBulkRun records the action type and snapshot key of a bulk run on ctx
func WithBulkRun(ctx context.Context, actionType, snapshotKey string) context.Context {
	ctx = context.WithValue(ctx, actionTypeKey, actionType)
	return context.WithValue(ctx, snapshotKeyKey, snapshotKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// GetUserID retrieves the acting user from context
func GetUserID(ctx context.Context) string { return stringValue(ctx, userIDKey) }

// Fields returns the correlation fields carried by ctx: trace and span IDs from
// the active OpenTelemetry span, then request, user and bulk run identifiers.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	for _, key := range []contextKey{requestIDKey, userIDKey, actionTypeKey, snapshotKeyKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}

// L returns the context's logger enriched with the correlation fields of ctx.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(Fields(ctx)...)
}

// For returns base enriched with the correlation fields of ctx
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.With(Fields(ctx)...)
}
