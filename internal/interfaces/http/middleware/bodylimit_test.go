package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitEngine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(BodyLimit(limit))
	handler := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "unreadable body")
			return
		}
		c.String(http.StatusAccepted, "queued")
	}
	engine.POST("/bulk/actions", handler)
	engine.GET("/bulk/process-logs", handler)
	return engine
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{
			name:          "submission within limit",
			method:        http.MethodPost,
			path:          "/bulk/actions",
			body:          `{"pk":{"0":"1"}}`,
			contentLength: 16,
			wantStatus:    http.StatusAccepted,
		},
		{
			name:          "declared length over limit",
			method:        http.MethodPost,
			path:          "/bulk/actions",
			body:          strings.Repeat("x", 200),
			contentLength: 200,
			wantStatus:    http.StatusRequestEntityTooLarge,
			wantBody:      "ERR_REQUEST_TOO_LARGE",
		},
		{
			name:          "unknown length capped while reading",
			method:        http.MethodPost,
			path:          "/bulk/actions",
			body:          strings.Repeat("x", 200),
			contentLength: -1,
			wantStatus:    http.StatusBadRequest,
		},
		{
			name:       "bodyless GET",
			method:     http.MethodGet,
			path:       "/bulk/process-logs",
			wantStatus: http.StatusAccepted,
		},
	}

	engine := bodyLimitEngine(64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}
