package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type submitCall struct {
	user   *identity.User
	params bulk.Params
	action string
	opts   bulk.Options
}

// mockSubmitter records submissions instead of storing work orders
type mockSubmitter struct {
	registry *bulkapp.Registry
	sub      *bulk.Submission
	err      error
	calls    []submitCall
}

func newMockSubmitter() *mockSubmitter {
	return &mockSubmitter{
		registry: bulkapp.NewRegistry(bulkapp.NewCommentAction(), bulkapp.NewOrderUpdateAction()),
	}
}

func (m *mockSubmitter) Registry() *bulkapp.Registry {
	return m.registry
}

func (m *mockSubmitter) ProcessFromParameters(ctx context.Context, user *identity.User, params bulk.Params,
	action bulkapp.Action, opts bulk.Options) (*bulk.Submission, error) {
	m.calls = append(m.calls, submitCall{user: user, params: params, action: action.BulkType(), opts: opts})
	if m.err != nil {
		return nil, m.err
	}
	return m.sub, nil
}

// mockUserRepository is a mock implementation of identity.UserRepository
type mockUserRepository struct {
	users map[uuid.UUID]*identity.User
	err   error
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (m *mockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return nil
}

// mockProcessLogReader is a mock implementation of ProcessLogReader
type mockProcessLogReader struct {
	logs       map[uuid.UUID]*bulk.ProcessLog
	list       *bulk.ProcessLogListResult
	err        error
	lastFilter bulk.ProcessLogFilter
	lastPage   [2]int
}

func (m *mockProcessLogReader) Get(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	if l, ok := m.logs[id]; ok {
		return l, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockProcessLogReader) List(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error) {
	m.lastFilter = filter
	m.lastPage = [2]int{page, pageSize}
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping() error { return m.err }

var errBoom = errors.New("boom")
