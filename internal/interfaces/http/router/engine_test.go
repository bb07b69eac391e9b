package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/interfaces/http/handler"
	"go.uber.org/zap/zaptest"
)

type stubSubmitter struct{ registry *bulkapp.Registry }

func (s stubSubmitter) Registry() *bulkapp.Registry { return s.registry }

func (s stubSubmitter) ProcessFromParameters(ctx context.Context, user *identity.User, params bulk.Params,
	action bulkapp.Action, opts bulk.Options) (*bulk.Submission, error) {
	return &bulk.Submission{ActionType: action.BulkType(), KeyCount: params.PK.Len()}, nil
}

type stubUsers struct{ user *identity.User }

func (s stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, shared.ErrNotFound
}

func (s stubUsers) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (s stubUsers) Save(ctx context.Context, user *identity.User) error { return nil }

type stubLogs struct{}

func (stubLogs) Get(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error) {
	return nil, shared.ErrNotFound
}

func (stubLogs) List(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error) {
	return &bulk.ProcessLogListResult{Page: page, PageSize: pageSize}, nil
}

func newTestEngine(t *testing.T, httpCfg config.HTTPConfig) (*identity.User, http.Handler) {
	t.Helper()
	user, err := identity.NewUser("analyst", "analyst@example.com")
	require.NoError(t, err)

	h := Handlers{
		Bulk:        handler.NewBulkActionHandler(stubSubmitter{registry: bulkapp.NewRegistry(bulkapp.NewCommentAction())}, stubUsers{user: user}),
		ProcessLogs: handler.NewProcessLogHandler(stubLogs{}),
		System:      handler.NewSystemHandler("tradecomply-bulk", "test", nil),
	}
	engine := NewEngine(EngineConfig{HTTP: httpCfg, ServiceName: "test"}, h, zaptest.NewLogger(t))
	return user, engine
}

func TestNewEngine_Routes(t *testing.T) {
	user, engine := newTestEngine(t, config.HTTPConfig{MaxBodySize: 1 << 20})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		user   bool
		status int
	}{
		{"health", http.MethodGet, "/health", "", false, http.StatusOK},
		{"ping", http.MethodGet, "/api/v1/system/ping", "", false, http.StatusOK},
		{"info", http.MethodGet, "/api/v1/system/info", "", false, http.StatusOK},
		{"action types", http.MethodGet, "/api/v1/bulk/action-types", "", false, http.StatusOK},
		{"submit", http.MethodPost, "/api/v1/bulk/actions", `{"action_type":"Bulk Comment","pk":{"0":"1"}}`, true, http.StatusAccepted},
		{"submit anonymous", http.MethodPost, "/api/v1/bulk/actions", `{"action_type":"Bulk Comment","pk":{"0":"1"}}`, false, http.StatusUnauthorized},
		{"list logs", http.MethodGet, "/api/v1/bulk/process-logs", "", false, http.StatusOK},
		{"missing log", http.MethodGet, "/api/v1/bulk/process-logs/" + uuid.NewString(), "", false, http.StatusNotFound},
		{"swagger disabled", http.MethodGet, "/swagger/index.html", "", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.user {
				req.Header.Set("X-User-ID", user.ID.String())
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestNewEngine_BodyLimit(t *testing.T) {
	user, engine := newTestEngine(t, config.HTTPConfig{MaxBodySize: 16})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/actions",
		strings.NewReader(`{"action_type":"Bulk Comment","pk":{"0":"1"}}`))
	req.Header.Set("X-User-ID", user.ID.String())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_Swagger(t *testing.T) {
	_, engine := newTestEngine(t, config.HTTPConfig{SwaggerEnabled: true})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/bulk/actions")
}

func TestNewEngine_CORS(t *testing.T) {
	_, engine := newTestEngine(t, config.HTTPConfig{CORSAllowOrigins: []string{"https://ops.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bulk/actions", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
