package telemetry

import (
	"context"
	"fmt"

	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans
const TracerName = "tradecomply/bulk"

// StartServiceSpan starts an internal span named "{service}.{method}".
// The caller must End the returned span.
func StartServiceSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method)
}

// SetAttributes adds alternating key/value pairs to span. Pairs whose key is
// not a string are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// RecordError records err on span and marks the span failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

// JobFunc matches the signature of a job queue handler
type JobFunc = func(ctx context.Context, args map[string]string) error

// InstrumentJob wraps fn in a consumer span and tags its CPU samples with the
// job name. labelArgs lists argument keys copied onto both.
func InstrumentJob(name string, fn JobFunc, labelArgs ...string) JobFunc {
	return func(ctx context.Context, args map[string]string) error {
		ctx, span := otel.Tracer(TracerName).Start(ctx, "job."+name,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(AttrJobName.String(name)),
		)
		defer span.End()

		labels := []string{"job_name", name}
		for _, key := range labelArgs {
			if v := args[key]; v != "" {
				labels = append(labels, "job_"+key, v)
				span.SetAttributes(attribute.String("job."+key, v))
			}
		}

		var err error
		pyroscope.TagWrapper(ctx, pyroscope.Labels(labels...), func(ctx context.Context) {
			err = fn(ctx, args)
		})
		RecordError(span, err)
		return err
	}
}
