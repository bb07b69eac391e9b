// Package middleware provides HTTP middleware for the bulk action API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig returns otelgin middleware, or a pass-through when disabled.
// The span name follows "HTTP METHOD route_pattern".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes enriches the active span once the request has been served.
// It must run after TracingWithConfig and after RequestID and UserIdentity.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id, ok := GetUserID(c); ok {
			span.SetAttributes(attribute.String("user_id", id.String()))
		}

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
