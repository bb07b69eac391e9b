package bulkapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tradecomply/backend/internal/domain/audit"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/comment"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/search"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/domain/trade"
)

// memState is an in-memory database whose clone acts as a transaction
type memState struct {
	users         map[uuid.UUID]identity.User
	orders        map[int64]trade.Order
	entries       map[int64]trade.Entry
	logs          map[uuid.UUID]bulk.ProcessLog
	changeRecords []bulk.ChangeRecord
	comments      []comment.Comment
	snapshots     []audit.EntitySnapshot
}

func newMemState() *memState {
	return &memState{
		users:   make(map[uuid.UUID]identity.User),
		orders:  make(map[int64]trade.Order),
		entries: make(map[int64]trade.Entry),
		logs:    make(map[uuid.UUID]bulk.ProcessLog),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.logs {
		c.logs[k] = v
	}
	for _, cr := range s.changeRecords {
		cr.Messages = append([]string(nil), cr.Messages...)
		c.changeRecords = append(c.changeRecords, cr)
	}
	c.comments = append(c.comments, s.comments...)
	c.snapshots = append(c.snapshots, s.snapshots...)
	return c
}

// memScope runs fn against a clone and only keeps it when fn succeeds
type memScope struct {
	mu    sync.Mutex
	state *memState
}

func newMemScope() *memScope {
	return &memScope{state: newMemState()}
}

func (m *memScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.state.clone()
	if err := fn(&memRepos{s: tx}); err != nil {
		return err
	}
	m.state = tx
	return nil
}

func (m *memScope) repos() *memRepos {
	return &memRepos{s: m.state}
}

type memRepos struct {
	s *memState
}

func (r *memRepos) ProcessLogs() bulk.ProcessLogRepository { return memLogs{r.s} }
func (r *memRepos) Records() bulk.RecordDirectory          { return memDirectory{r.s} }
func (r *memRepos) Users() identity.UserRepository         { return memUsers{r.s} }
func (r *memRepos) Orders() trade.OrderRepository          { return memOrders{r.s} }
func (r *memRepos) Entries() trade.EntryRepository         { return memEntries{r.s} }
func (r *memRepos) Comments() comment.Repository           { return memComments{r.s} }
func (r *memRepos) Snapshots() audit.SnapshotRepository    { return memSnapshots{r.s} }

type memLogs struct{ s *memState }

// process logs

func (r memLogs) Create(ctx context.Context, log *bulk.ProcessLog) error {
	stored := *log
	stored.ChangeRecords = nil
	r.s.logs[log.ID] = stored
	return nil
}

func (r memLogs) Save(ctx context.Context, log *bulk.ProcessLog) error {
	if _, ok := r.s.logs[log.ID]; !ok {
		return shared.ErrNotFound
	}
	return r.Create(ctx, log)
}

func (r memLogs) CreateChangeRecord(ctx context.Context, cr *bulk.ChangeRecord) error {
	stored := *cr
	stored.Messages = append([]string(nil), cr.Messages...)
	r.s.changeRecords = append(r.s.changeRecords, stored)
	return nil
}

func (r memLogs) SaveChangeRecordMessages(ctx context.Context, cr *bulk.ChangeRecord) error {
	for i := range r.s.changeRecords {
		if r.s.changeRecords[i].ID == cr.ID {
			r.s.changeRecords[i].Messages = append([]string(nil), cr.Messages...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r memLogs) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error) {
	stored, ok := r.s.logs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	log := stored
	log.ChangeRecords = make([]*bulk.ChangeRecord, 0)
	for i := range r.s.changeRecords {
		if r.s.changeRecords[i].ProcessLogID == id {
			cr := r.s.changeRecords[i]
			log.ChangeRecords = append(log.ChangeRecords, &cr)
		}
	}
	sort.Slice(log.ChangeRecords, func(i, j int) bool {
		return log.ChangeRecords[i].RecordSequenceNumber < log.ChangeRecords[j].RecordSequenceNumber
	})
	return &log, nil
}

func (r memLogs) FindAll(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error) {
	items := make([]*bulk.ProcessLog, 0)
	for id := range r.s.logs {
		log, _ := r.FindByID(ctx, id)
		if filter.ActionType != "" && log.ActionType != filter.ActionType {
			continue
		}
		items = append(items, log)
	}
	return &bulk.ProcessLogListResult{Items: items, TotalCount: int64(len(items)), Page: page, PageSize: pageSize}, nil
}

type memDirectory struct{ s *memState }

func (r memDirectory) FindRecord(ctx context.Context, moduleType, id string) (bulk.Record, error) {
	switch moduleType {
	case trade.RecordTypeOrder:
		return memOrders{r.s}.find(id)
	case trade.RecordTypeEntry:
		return memEntries{r.s}.find(id)
	default:
		return nil, fmt.Errorf("unknown module type %q", moduleType)
	}
}

func (r memDirectory) ModuleTypes() []string {
	return []string{trade.RecordTypeEntry, trade.RecordTypeOrder}
}

type memUsers struct{ s *memState }

func (r memUsers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) Save(ctx context.Context, u *identity.User) error {
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memComments struct{ s *memState }

func (r memComments) Create(ctx context.Context, c *comment.Comment) error {
	r.s.comments = append(r.s.comments, *c)
	return nil
}

func (r memComments) FindByCommentable(ctx context.Context, ref shared.RecordRef) ([]comment.Comment, error) {
	var out []comment.Comment
	for _, c := range r.s.comments {
		if c.Commentable == ref {
			out = append(out, c)
		}
	}
	return out, nil
}

type memSnapshots struct{ s *memState }

func (r memSnapshots) Create(ctx context.Context, snap *audit.EntitySnapshot) error {
	r.s.snapshots = append(r.s.snapshots, *snap)
	return nil
}

func (r memSnapshots) FindByRecordable(ctx context.Context, ref shared.RecordRef) ([]audit.EntitySnapshot, error) {
	var out []audit.EntitySnapshot
	for _, s := range r.s.snapshots {
		if s.Recordable == ref {
			out = append(out, s)
		}
	}
	return out, nil
}

type memOrders struct{ s *memState }

func (m memOrders) find(id string) (*trade.Order, error) {
	n, err := trade.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	return m.FindByID(context.Background(), n)
}

func (m memOrders) FindByID(ctx context.Context, id int64) (*trade.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (m memOrders) Save(ctx context.Context, o *trade.Order) error {
	m.s.orders[o.ID] = *o
	return nil
}

type memEntries struct{ s *memState }

func (m memEntries) find(id string) (*trade.Entry, error) {
	n, err := trade.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	return m.FindByID(context.Background(), n)
}

func (m memEntries) FindByID(ctx context.Context, id int64) (*trade.Entry, error) {
	e, ok := m.s.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (m memEntries) Save(ctx context.Context, e *trade.Entry) error {
	m.s.entries[e.ID] = *e
	return nil
}

// memBlobStore is a map-backed BlobStore with call counters
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	putErr  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (m *memBlobStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memBlobStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memBlobStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok, nil
}

func (m *memBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// MockJobDispatcher is a mock implementation of JobDispatcher
type MockJobDispatcher struct {
	mock.Mock
}

func (m *MockJobDispatcher) Schedule(ctx context.Context, name string, args map[string]string) error {
	a := m.Called(ctx, name, args)
	return a.Error(0)
}

// MockSearchRunRepository is a mock implementation of search.Repository
type MockSearchRunRepository struct {
	mock.Mock
}

func (m *MockSearchRunRepository) FindByID(ctx context.Context, id int64) (*search.SearchRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.SearchRun), args.Error(1)
}

func (m *MockSearchRunRepository) FindAllObjectKeys(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSearchRunRepository) Save(ctx context.Context, run *search.SearchRun, keys []string) error {
	args := m.Called(ctx, run, keys)
	return args.Error(0)
}

// MockTestEnvironmentSubmitter is a mock implementation of TestEnvironmentSubmitter
type MockTestEnvironmentSubmitter struct {
	mock.Mock
}

func (m *MockTestEnvironmentSubmitter) SendToTest(ctx context.Context, file trade.FileRef) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

// fakeIdempotencyStore records processed keys in memory
type fakeIdempotencyStore struct {
	mu        sync.Mutex
	processed map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{processed: make(map[string]bool)}
}

func (f *fakeIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processed[id] {
		return false, nil
	}
	f.processed[id] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed[id], nil
}

func (f *fakeIdempotencyStore) Close() error { return nil }

// steppingClock returns strictly increasing times
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}
