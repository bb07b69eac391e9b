package bulkapp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/search"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/domain/trade"
	"go.uber.org/zap/zaptest"
)

const testBucket = "bulk-snapshots"

type runnerFixture struct {
	scope      *memScope
	store      *memBlobStore
	dispatcher *MockJobDispatcher
	searchRuns *MockSearchRunRepository
	submitter  *MockTestEnvironmentSubmitter
	clock      *steppingClock
	runner     *Runner
	registry   *Registry
}

func newRunnerFixture(t *testing.T, maxResults int, extra ...Action) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		scope:      newMemScope(),
		store:      newMemBlobStore(),
		dispatcher: new(MockJobDispatcher),
		searchRuns: new(MockSearchRunRepository),
		submitter:  new(MockTestEnvironmentSubmitter),
		clock:      newSteppingClock(),
	}
	sendToTest := NewSendToTestAction(f.store, f.submitter, zaptest.NewLogger(t))
	sendToTest.now = f.clock.Now
	actions := append([]Action{NewCommentAction(), NewOrderUpdateAction(), sendToTest}, extra...)
	f.registry = NewRegistry(actions...)
	f.runner = NewRunner(f.scope, f.searchRuns, f.store, f.dispatcher, f.registry,
		RunnerConfig{Bucket: testBucket, Prefix: "bulk", MaxResults: maxResults},
		WithRunnerLogger(zaptest.NewLogger(t)),
		WithRunnerClock(f.clock.Now),
	)
	return f
}

func (f *runnerFixture) addUser(t *testing.T, perms ...identity.Permission) *identity.User {
	t.Helper()
	u, err := identity.NewUser(fmt.Sprintf("user%d", len(f.scope.state.users)+1), "", perms...)
	require.NoError(t, err)
	f.scope.state.users[u.ID] = *u
	return u
}

func (f *runnerFixture) addOrder(t *testing.T, id int64) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(fmt.Sprintf("PO-%d", id))
	require.NoError(t, err)
	o.ID = id
	f.scope.state.orders[id] = *o
	return o
}

func (f *runnerFixture) expectSchedule() {
	f.dispatcher.On("Schedule", mock.Anything, ReplayJobName, mock.Anything).Return(nil)
}

// scheduledArgs returns the args of every Schedule call
func (f *runnerFixture) scheduledArgs() []map[string]string {
	var out []map[string]string
	for _, call := range f.dispatcher.Calls {
		if call.Method == "Schedule" {
			out = append(out, call.Arguments.Get(2).(map[string]string))
		}
	}
	return out
}

func (f *runnerFixture) submitAndReplay(t *testing.T, user *identity.User, params bulk.Params, action Action, opts bulk.Options) *bulk.ProcessLog {
	t.Helper()
	sub, err := f.runner.ProcessFromParameters(context.Background(), user, params, action, opts)
	require.NoError(t, err)
	log, err := f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
	require.NoError(t, err)
	stored, err := f.scope.repos().ProcessLogs().FindByID(context.Background(), log.ID)
	require.NoError(t, err)
	return stored
}

func TestRunner_ProcessFromParameters_PK(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t)

	params := bulk.Params{PK: bulk.NewPK("5", "30", "1", "10", "3", "20")}
	sub, err := f.runner.ProcessFromParameters(context.Background(), user, params, NewCommentAction(), bulk.Options{"module_type": "Order"})
	require.NoError(t, err)

	assert.Equal(t, testBucket, sub.Bucket)
	assert.Equal(t, 3, sub.KeyCount)
	assert.Equal(t, BulkTypeComment, sub.ActionType)
	assert.Contains(t, sub.Key, "bulk/"+sub.ContentHash+"-")
	assert.Equal(t, 1, f.store.puts)

	wo, err := f.runner.LoadWorkOrder(context.Background(), sub.Bucket, sub.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "10", "20"}, wo.Keys)
	assert.Equal(t, user.ID, wo.UserID)
	assert.Equal(t, "Order", wo.Opts.String("module_type"))

	calls := f.scheduledArgs()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]string{ArgBucket: testBucket, ArgKey: sub.Key, ArgAction: BulkTypeComment}, calls[0])
}

func TestRunner_ProcessFromParameters_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		params bulk.Params
	}{
		{"empty", bulk.Params{}},
		{"non numeric search run", bulk.Params{SearchRunID: "abc"}},
		{"empty pk mapping", bulk.Params{PK: bulk.PKFromMap(map[string]string{})}},
		{"blank key", bulk.Params{PK: bulk.NewPK("0", " ")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(t, 0)
			user := f.addUser(t)

			_, err := f.runner.ProcessFromParameters(context.Background(), user, tt.params, NewCommentAction(), nil)
			require.Error(t, err)
			assert.True(t, bulk.IsInvalidRequest(err))
			assert.Equal(t, 0, f.store.puts)
			f.dispatcher.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRunner_ProcessFromParameters_PrefersSearchRun(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t)
	f.searchRuns.On("FindByID", mock.Anything, int64(9)).Return(&search.SearchRun{ID: 9, TotalObjects: 2}, nil)
	f.searchRuns.On("FindAllObjectKeys", mock.Anything, int64(9)).Return([]string{"7", "8"}, nil)

	params := bulk.Params{SearchRunID: "9", PK: bulk.NewPK("0", "1")}
	sub, err := f.runner.ProcessFromParameters(context.Background(), user, params, NewCommentAction(), nil)
	require.NoError(t, err)

	wo, err := f.runner.LoadWorkOrder(context.Background(), sub.Bucket, sub.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, wo.Keys)
}

func TestRunner_ProcessSearchRun_TooManyBulkObjects(t *testing.T) {
	f := newRunnerFixture(t, 100)
	user := f.addUser(t)
	f.searchRuns.On("FindByID", mock.Anything, int64(1)).Return(&search.SearchRun{ID: 1, TotalObjects: 500}, nil)

	_, err := f.runner.ProcessFromParameters(context.Background(), user, bulk.Params{SearchRunID: "1"}, NewCommentAction(), nil)
	require.Error(t, err)
	assert.True(t, bulk.IsTooManyBulkObjects(err))

	assert.Equal(t, 0, f.store.puts)
	assert.Equal(t, 0, f.store.count())
	f.searchRuns.AssertNotCalled(t, "FindAllObjectKeys", mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_ProcessSearchRun(t *testing.T) {
	t.Run("within ceiling", func(t *testing.T) {
		f := newRunnerFixture(t, 3)
		f.expectSchedule()
		user := f.addUser(t)
		f.searchRuns.On("FindByID", mock.Anything, int64(4)).Return(&search.SearchRun{ID: 4, TotalObjects: 3}, nil)
		f.searchRuns.On("FindAllObjectKeys", mock.Anything, int64(4)).Return([]string{"3", "1", "2"}, nil)

		sub, err := f.runner.ProcessSearchRun(context.Background(), user, 4, NewCommentAction(), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, sub.KeyCount)
	})

	t.Run("result set grew past ceiling", func(t *testing.T) {
		f := newRunnerFixture(t, 2)
		user := f.addUser(t)
		f.searchRuns.On("FindByID", mock.Anything, int64(4)).Return(&search.SearchRun{ID: 4, TotalObjects: 2}, nil)
		f.searchRuns.On("FindAllObjectKeys", mock.Anything, int64(4)).Return([]string{"3", "1", "2"}, nil)

		_, err := f.runner.ProcessSearchRun(context.Background(), user, 4, NewCommentAction(), nil)
		assert.True(t, bulk.IsTooManyBulkObjects(err))
		assert.Equal(t, 0, f.store.puts)
	})

	t.Run("no ceiling configured", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t)
		f.searchRuns.On("FindByID", mock.Anything, int64(4)).Return(&search.SearchRun{ID: 4, TotalObjects: 5000}, nil)
		keys := make([]string, 5000)
		for i := range keys {
			keys[i] = fmt.Sprint(i + 1)
		}
		f.searchRuns.On("FindAllObjectKeys", mock.Anything, int64(4)).Return(keys, nil)

		sub, err := f.runner.ProcessSearchRun(context.Background(), user, 4, NewCommentAction(), nil)
		require.NoError(t, err)
		assert.Equal(t, 5000, sub.KeyCount)
	})

	t.Run("missing search run", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		user := f.addUser(t)
		f.searchRuns.On("FindByID", mock.Anything, int64(4)).Return(nil, shared.ErrNotFound)

		_, err := f.runner.ProcessSearchRun(context.Background(), user, 4, NewCommentAction(), nil)
		assert.True(t, bulk.IsInvalidRequest(err))
	})

	t.Run("empty search run", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		user := f.addUser(t)
		f.searchRuns.On("FindByID", mock.Anything, int64(4)).Return(&search.SearchRun{ID: 4}, nil)
		f.searchRuns.On("FindAllObjectKeys", mock.Anything, int64(4)).Return([]string{}, nil)

		_, err := f.runner.ProcessSearchRun(context.Background(), user, 4, NewCommentAction(), nil)
		assert.True(t, bulk.IsInvalidRequest(err))
		assert.Equal(t, 0, f.store.puts)
	})
}

func TestRunner_ProcessObjectIDs_UnknownAction(t *testing.T) {
	f := newRunnerFixture(t, 0)
	user := f.addUser(t)

	_, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, &scriptedAction{bulkType: "Bulk Unknown"}, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, 0, f.store.puts)
}

func TestRunner_ProcessObjectIDs_ScheduleFailureRemovesSnapshot(t *testing.T) {
	f := newRunnerFixture(t, 0)
	user := f.addUser(t)
	f.dispatcher.On("Schedule", mock.Anything, ReplayJobName, mock.Anything).Return(errors.New("queue down"))

	_, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, NewCommentAction(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, f.store.puts)
	assert.Equal(t, 0, f.store.count())
}

func TestRunner_IdenticalSubmissionsAreIndependent(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionOrderView, identity.PermissionComment)
	f.addOrder(t, 42)

	params := bulk.Params{PK: bulk.NewPK("0", "42")}
	opts := bulk.Options{"module_type": "Order", "subject": "hi", "body": "hello"}

	first := f.submitAndReplay(t, user, params, NewCommentAction(), opts)
	second := f.submitAndReplay(t, user, params, NewCommentAction(), opts)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.SnapshotKey, second.SnapshotKey)
	assert.Len(t, first.ChangeRecords, 1)
	assert.Len(t, second.ChangeRecords, 1)
	assert.Len(t, f.scope.state.comments, 2)

	calls := f.scheduledArgs()
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0][ArgKey], calls[1][ArgKey])
}

func TestRunner_RunSnapshot_BulkCommentScenario(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionOrderView, identity.PermissionComment)
	order := f.addOrder(t, 42)

	log := f.submitAndReplay(t, user,
		bulk.Params{PK: bulk.NewPK("0", "42")},
		NewCommentAction(),
		bulk.Options{"module_type": "Order", "subject": "hi", "body": "hello"},
	)

	assert.Equal(t, BulkTypeComment, log.ActionType)
	assert.True(t, log.IsComplete())
	require.Len(t, log.ChangeRecords, 1)
	cr := log.ChangeRecords[0]
	assert.False(t, cr.Failed)
	assert.Equal(t, 1, cr.RecordSequenceNumber)
	assert.Equal(t, order.Ref(), cr.Recordable)

	require.Len(t, f.scope.state.comments, 1)
	assert.Equal(t, "hi", f.scope.state.comments[0].Subject)
	assert.Equal(t, "hello", f.scope.state.comments[0].Body)
	assert.Equal(t, 0, f.store.count(), "snapshot is deleted after a committed run")
}

func TestRunner_RunSnapshot_BulkCommentWithoutPermission(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionOrderView)
	f.addOrder(t, 42)

	log := f.submitAndReplay(t, user,
		bulk.Params{PK: bulk.NewPK("0", "42")},
		NewCommentAction(),
		bulk.Options{"module_type": "Order", "subject": "hi", "body": "hello"},
	)

	assert.True(t, log.IsComplete())
	require.Len(t, log.ChangeRecords, 1)
	assert.True(t, log.ChangeRecords[0].Failed)
	require.Len(t, log.ChangeRecords[0].Messages, 1)
	assert.Contains(t, log.ChangeRecords[0].Messages[0], "do not have permission to comment")
	assert.Empty(t, f.scope.state.comments)
	assert.Equal(t, 0, f.store.count(), "snapshot is deleted after a run with failed records")
}

func TestRunner_RunSnapshot_SequenceNumbersFollowKeyOrder(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionOrderView, identity.PermissionComment)
	ids := []int64{9, 3, 7, 3, 1}
	for _, id := range ids {
		f.addOrder(t, id)
	}

	keys := []string{"9", "3", "7", "3", "1"}
	sub, err := f.runner.ProcessObjectIDs(context.Background(), user, keys, NewCommentAction(),
		bulk.Options{"module_type": "Order", "subject": "s", "body": "b"})
	require.NoError(t, err)
	result, err := f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
	require.NoError(t, err)

	log, err := f.scope.repos().ProcessLogs().FindByID(context.Background(), result.ID)
	require.NoError(t, err)
	require.Len(t, log.ChangeRecords, len(keys))
	for i, cr := range log.ChangeRecords {
		assert.Equal(t, i+1, cr.RecordSequenceNumber)
		assert.Equal(t, keys[i], cr.Recordable.ID)
	}
	assert.NotNil(t, log.CompletedAt)
}

func TestRunner_RunSnapshot_UnhandledErrorRollsBack(t *testing.T) {
	boom := errors.New("corrupt record")
	failing := &scriptedAction{bulkType: "Bulk Explode", failAt: 2, err: boom}
	f := newRunnerFixture(t, 0, failing)
	f.expectSchedule()
	user := f.addUser(t)

	sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1", "2", "3"}, failing, nil)
	require.NoError(t, err)

	_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
	require.ErrorIs(t, err, boom)

	assert.Empty(t, f.scope.state.logs, "process log is rolled back")
	assert.Empty(t, f.scope.state.changeRecords, "change records are rolled back")
	exists, err := f.store.Exists(context.Background(), sub.Bucket, sub.Key)
	require.NoError(t, err)
	assert.True(t, exists, "snapshot is retained for inspection")
}

func TestRunner_RunSnapshot_ChangeRecordContract(t *testing.T) {
	tests := []struct {
		name   string
		action *scriptedAction
	}{
		{"no change record", &scriptedAction{bulkType: "Bulk Silent", skipAt: 2}},
		{"wrong sequence number", &scriptedAction{bulkType: "Bulk Skewed", seqOffset: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(t, 0, tt.action)
			f.expectSchedule()
			user := f.addUser(t)

			sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1", "2"}, tt.action, nil)
			require.NoError(t, err)

			_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
			require.Error(t, err)
			assert.Empty(t, f.scope.state.logs)
			assert.Equal(t, 1, f.store.count())
		})
	}

	t.Run("duplicate change record", func(t *testing.T) {
		action := &scriptedAction{bulkType: "Bulk Double", double: true}
		f := newRunnerFixture(t, 0, action)
		f.expectSchedule()
		user := f.addUser(t)

		sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, action, nil)
		require.NoError(t, err)

		_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
		require.Error(t, err)
		assert.Empty(t, f.scope.state.logs)
	})

	t.Run("contract sentinel", func(t *testing.T) {
		action := &scriptedAction{bulkType: "Bulk Silent", skipAt: 1}
		f := newRunnerFixture(t, 0, action)
		f.expectSchedule()
		user := f.addUser(t)

		sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, action, nil)
		require.NoError(t, err)

		_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
		assert.ErrorIs(t, err, ErrChangeRecordContract)
	})
}

func TestRunner_RunSnapshot_Errors(t *testing.T) {
	t.Run("missing snapshot", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		_, err := f.runner.RunSnapshot(context.Background(), testBucket, "bulk/missing.json", BulkTypeComment)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("unknown action", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		_, err := f.runner.RunSnapshot(context.Background(), testBucket, "bulk/any.json", "Bulk Nope")
		assert.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("unknown user aborts", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t)
		sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, NewCommentAction(), nil)
		require.NoError(t, err)
		delete(f.scope.state.users, user.ID)

		_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, 1, f.store.count())
	})

	t.Run("missing record aborts", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, identity.PermissionAll)
		f.addOrder(t, 1)
		sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1", "404"}, NewCommentAction(),
			bulk.Options{"module_type": "Order", "subject": "s", "body": "b"})
		require.NoError(t, err)

		_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Empty(t, f.scope.state.comments)
		assert.Empty(t, f.scope.state.logs)
	})
}

// scriptedAction records outcomes according to its script
type scriptedAction struct {
	bulkType  string
	failAt    int
	skipAt    int
	seqOffset int
	double    bool
	err       error
}

func (a *scriptedAction) BulkType() string { return a.bulkType }

func (a *scriptedAction) Act(ctx context.Context, req ActRequest) error {
	if req.SequenceNumber == a.failAt {
		return a.err
	}
	if req.SequenceNumber == a.skipAt {
		return nil
	}
	ref := shared.NewRecordRef("Order", req.RecordID)
	if a.seqOffset != 0 {
		// the log refuses the skewed number, leaving the key without a record
		_, _ = req.Log.ProcessLog().AppendChangeRecord(ref, req.SequenceNumber+a.seqOffset, false, req.Log.now())
		return nil
	}
	if err := req.Log.Succeed(ctx, ref, req.SequenceNumber); err != nil {
		return err
	}
	if a.double {
		// force a duplicate past the log's own sequence guard
		req.Log.log.ChangeRecords = append(req.Log.log.ChangeRecords, req.Log.log.ChangeRecords[len(req.Log.log.ChangeRecords)-1])
	}
	return nil
}
