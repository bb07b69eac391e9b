package bulk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/domain/shared"
)

func TestNewProcessLog(t *testing.T) {
	started := time.Now()
	log, err := NewProcessLog(uuid.New(), "Bulk Comment", started)
	require.NoError(t, err)
	assert.Equal(t, "Bulk Comment", log.ActionType)
	assert.False(t, log.IsComplete())
	assert.Equal(t, 1, log.NextSequenceNumber())

	_, err = NewProcessLog(uuid.Nil, "Bulk Comment", started)
	assert.Error(t, err)
	_, err = NewProcessLog(uuid.New(), " ", started)
	assert.Error(t, err)
}

func TestProcessLog_AppendChangeRecord(t *testing.T) {
	log, err := NewProcessLog(uuid.New(), "Bulk Comment", time.Now())
	require.NoError(t, err)

	ref := shared.NewRecordRef("Order", "42")
	cr, err := log.AppendChangeRecord(ref, 1, false, time.Now())
	require.NoError(t, err)
	assert.Equal(t, log.ID, cr.ProcessLogID)
	assert.Equal(t, 1, cr.RecordSequenceNumber)

	_, err = log.AppendChangeRecord(ref, 3, true, time.Now())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_SEQUENCE_NUMBER", domainErr.Code)

	cr2, err := log.AppendChangeRecord(ref, 2, true, time.Now())
	require.NoError(t, err)
	cr2.AddMessage("first")
	cr2.AddMessage("second")
	assert.Equal(t, []string{"first", "second"}, cr2.Messages)

	assert.Equal(t, 1, log.FailedCount())
	assert.Equal(t, 1, log.SucceededCount())
	assert.Equal(t, 1, log.CountAt(2))
	assert.Equal(t, 0, log.CountAt(3))
}

func TestProcessLog_Complete(t *testing.T) {
	started := time.Now()
	log, err := NewProcessLog(uuid.New(), "Bulk Comment", started)
	require.NoError(t, err)
	assert.Zero(t, log.Duration())

	require.NoError(t, log.Complete(started.Add(time.Second)))
	assert.True(t, log.IsComplete())
	assert.Equal(t, time.Second, log.Duration())
	assert.Error(t, log.Complete(time.Now()))

	_, err = log.AppendChangeRecord(shared.NewRecordRef("Order", "1"), 1, false, time.Now())
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	err := NewInvalidRequestError("search_run_id", "pk")
	assert.True(t, IsInvalidRequest(err))
	assert.False(t, IsTooManyBulkObjects(err))
	assert.Contains(t, err.Error(), "search_run_id, pk")

	tooMany := NewTooManyBulkObjectsError(500, 100)
	assert.True(t, IsTooManyBulkObjects(tooMany))
	assert.Contains(t, tooMany.Error(), "500")
	assert.False(t, IsInvalidRequest(nil))
}
