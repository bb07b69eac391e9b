package bulkapp

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/trade"
)

func TestCommentAction_Entry(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionEntryView, identity.PermissionComment)
	entry, err := trade.NewEntry("BR-1")
	require.NoError(t, err)
	entry.ID = 5
	f.scope.state.entries[5] = *entry

	log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "5")}, NewCommentAction(),
		bulk.Options{"module_type": "Entry", "subject": "customs hold", "body": "call broker"})

	require.Len(t, log.ChangeRecords, 1)
	assert.False(t, log.ChangeRecords[0].Failed)
	assert.Equal(t, "Entry", log.ChangeRecords[0].Recordable.Type)
}

func TestCommentAction_BlankSubjectFails(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionOrderView, identity.PermissionComment)
	f.addOrder(t, 42)

	log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "42")}, NewCommentAction(),
		bulk.Options{"module_type": "Order", "body": "hello"})

	require.Len(t, log.ChangeRecords, 1)
	assert.True(t, log.ChangeRecords[0].Failed)
	assert.Equal(t, []string{"Subject can't be blank"}, log.ChangeRecords[0].Messages)
}

func TestCommentAction_UnknownModuleTypeAborts(t *testing.T) {
	f := newRunnerFixture(t, 0)
	f.expectSchedule()
	user := f.addUser(t, identity.PermissionAll)

	sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"1"}, NewCommentAction(),
		bulk.Options{"module_type": "Invoice", "subject": "s", "body": "b"})
	require.NoError(t, err)

	_, err = f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
	require.Error(t, err)
	assert.Empty(t, f.scope.state.logs)
}

func TestOrderUpdateAction(t *testing.T) {
	t.Run("applies permitted fields and writes a snapshot", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t,
			identity.PermissionOrderEdit,
			identity.OrderFieldPermission("terms_of_sale"),
			identity.OrderFieldPermission("declared_value"),
		)
		f.addOrder(t, 7)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "7")}, NewOrderUpdateAction(),
			bulk.Options{"terms_of_sale": "FOB", "mode_of_delivery": "Air", "declared_value": "99.50"})

		require.Len(t, log.ChangeRecords, 1)
		cr := log.ChangeRecords[0]
		assert.False(t, cr.Failed)
		assert.Equal(t, []string{"Updated terms_of_sale, declared_value."}, cr.Messages)

		order := f.scope.state.orders[7]
		assert.Equal(t, "FOB", order.TermsOfSale)
		assert.Empty(t, order.ModeOfDelivery, "field without permission is untouched")
		assert.True(t, decimal.RequireFromString("99.50").Equal(order.DeclaredValue))

		require.Len(t, f.scope.state.snapshots, 1)
		snap := f.scope.state.snapshots[0]
		assert.Equal(t, order.Ref(), snap.Recordable)
		assert.Equal(t, BulkTypeOrderUpdate, snap.Context)
		assert.Contains(t, string(snap.Data), `"TermsOfSale":"FOB"`)
	})

	t.Run("without edit permission", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, identity.PermissionOrderView, identity.OrderFieldPermission("terms_of_sale"))
		f.addOrder(t, 7)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "7")}, NewOrderUpdateAction(),
			bulk.Options{"terms_of_sale": "FOB"})

		require.Len(t, log.ChangeRecords, 1)
		assert.True(t, log.ChangeRecords[0].Failed)
		assert.Equal(t, []string{"You do not have permission to update the record with ID 7."}, log.ChangeRecords[0].Messages)
		assert.Empty(t, f.scope.state.orders[7].TermsOfSale)
		assert.Empty(t, f.scope.state.snapshots)
	})

	t.Run("invalid value fails the record only", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, identity.PermissionOrderEdit, identity.OrderFieldPermission("ship_window_start"))
		f.addOrder(t, 7)
		f.addOrder(t, 8)

		sub, err := f.runner.ProcessObjectIDs(context.Background(), user, []string{"7", "8"}, NewOrderUpdateAction(),
			bulk.Options{"ship_window_start": "next tuesday"})
		require.NoError(t, err)
		result, err := f.runner.RunSnapshot(context.Background(), sub.Bucket, sub.Key, sub.ActionType)
		require.NoError(t, err)

		assert.Equal(t, 2, result.FailedCount())
		assert.Contains(t, result.ChangeRecords[0].Messages[0], "Invalid value for ship_window_start")
		assert.True(t, result.IsComplete())
	})

	t.Run("no permitted fields supplied", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, identity.PermissionOrderEdit)
		f.addOrder(t, 7)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "7")}, NewOrderUpdateAction(),
			bulk.Options{"terms_of_sale": "FOB"})

		require.Len(t, log.ChangeRecords, 1)
		assert.False(t, log.ChangeRecords[0].Failed)
		assert.Len(t, log.ChangeRecords[0].Messages, 1)
		assert.Empty(t, f.scope.state.snapshots)
	})
}

func (f *runnerFixture) addEntry(t *testing.T, id int64, file *trade.FileRef) {
	t.Helper()
	e, err := trade.NewEntry("BR")
	require.NoError(t, err)
	e.ID = id
	e.LastFile = file
	f.scope.state.entries[id] = *e
}

func TestSendToTestAction(t *testing.T) {
	file := &trade.FileRef{Bucket: "integration", Path: "kewill/1.xml", FileName: "1.xml"}
	sendPerms := []identity.Permission{identity.PermissionEntryView, identity.PermissionSendToTest}

	t.Run("no last file is a silent success", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, sendPerms...)
		f.addEntry(t, 1, nil)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "1")}, f.registryAction(t, BulkTypeSendToTest), nil)

		require.Len(t, log.ChangeRecords, 1)
		assert.False(t, log.ChangeRecords[0].Failed)
		assert.Empty(t, log.ChangeRecords[0].Messages)
		f.submitter.AssertNotCalled(t, "SendToTest", mock.Anything, mock.Anything)
	})

	t.Run("file missing from storage", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, sendPerms...)
		f.addEntry(t, 1, file)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "1")}, f.registryAction(t, BulkTypeSendToTest), nil)

		require.Len(t, log.ChangeRecords, 1)
		assert.True(t, log.ChangeRecords[0].Failed)
		assert.Contains(t, log.ChangeRecords[0].Messages[0], "could not be found")
	})

	t.Run("forwards the file", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, sendPerms...)
		f.addEntry(t, 1, file)
		require.NoError(t, f.store.Put(context.Background(), file.Bucket, file.Path, []byte("<entry/>")))
		f.submitter.On("SendToTest", mock.Anything, *file).Return(nil)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "1")}, f.registryAction(t, BulkTypeSendToTest), nil)

		require.Len(t, log.ChangeRecords, 1)
		assert.False(t, log.ChangeRecords[0].Failed)
		assert.NotNil(t, f.scope.state.entries[1].LastSentToTestAt)
		f.submitter.AssertExpectations(t)
	})

	t.Run("forward failure fails the record", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, sendPerms...)
		f.addEntry(t, 1, file)
		require.NoError(t, f.store.Put(context.Background(), file.Bucket, file.Path, []byte("<entry/>")))
		f.submitter.On("SendToTest", mock.Anything, *file).Return(errors.New("test bucket unavailable"))

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "1")}, f.registryAction(t, BulkTypeSendToTest), nil)

		require.Len(t, log.ChangeRecords, 1)
		assert.True(t, log.ChangeRecords[0].Failed)
		assert.Contains(t, log.ChangeRecords[0].Messages[0], "test bucket unavailable")
		assert.Nil(t, f.scope.state.entries[1].LastSentToTestAt)
	})

	t.Run("without permission", func(t *testing.T) {
		f := newRunnerFixture(t, 0)
		f.expectSchedule()
		user := f.addUser(t, identity.PermissionEntryView)
		f.addEntry(t, 1, file)

		log := f.submitAndReplay(t, user, bulk.Params{PK: bulk.NewPK("0", "1")}, f.registryAction(t, BulkTypeSendToTest), nil)

		require.Len(t, log.ChangeRecords, 1)
		assert.True(t, log.ChangeRecords[0].Failed)
		assert.Contains(t, log.ChangeRecords[0].Messages[0], "do not have permission to send")
	})
}

func (f *runnerFixture) registryAction(t *testing.T, bulkType string) Action {
	t.Helper()
	a, err := f.registry.Lookup(bulkType)
	require.NoError(t, err)
	return a
}
