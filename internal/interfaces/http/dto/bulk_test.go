package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/shared"
)

func TestSubmitBulkActionRequest_Params(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		searchRunID string
		pk          []string
	}{
		{"numeric search run", `{"action_type":"x","search_run_id":42}`, "42", nil},
		{"string search run", `{"action_type":"x","search_run_id":"17"}`, "17", nil},
		{"null search run", `{"action_type":"x","search_run_id":null,"pk":{"0":"9"}}`, "", []string{"9"}},
		{"non-numeric search run kept verbatim", `{"action_type":"x","search_run_id":"abc"}`, "abc", nil},
		{"pk keeps document order", `{"action_type":"x","pk":{"b":"2","a":1,"c":"3"}}`, "", []string{"2", "1", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SubmitBulkActionRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			params := req.Params()
			assert.Equal(t, tt.searchRunID, params.SearchRunID)
			if tt.pk == nil {
				assert.Equal(t, 0, params.PK.Len())
			} else {
				assert.Equal(t, tt.pk, params.PK.Values())
			}
		})
	}
}

func TestListProcessLogsRequest_Filter(t *testing.T) {
	userID := uuid.New()
	done := true
	req := ListProcessLogsRequest{ActionType: "Bulk Comment", UserID: userID.String(), Completed: &done}

	f := req.Filter()
	assert.Equal(t, "Bulk Comment", f.ActionType)
	require.NotNil(t, f.UserID)
	assert.Equal(t, userID, *f.UserID)
	assert.True(t, *f.Completed)

	assert.Nil(t, ListProcessLogsRequest{}.Filter().UserID)
}

func TestToProcessLogDetail(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	log, err := bulk.NewProcessLog(uuid.New(), "Bulk Comment", start)
	require.NoError(t, err)

	_, err = log.AppendChangeRecord(shared.NewRecordRef("Order", "1"), 1, false, start)
	require.NoError(t, err)
	failed, err := log.AppendChangeRecord(shared.NewRecordRef("Order", "2"), 2, true, start)
	require.NoError(t, err)
	failed.AddMessage("You do not have permission to comment on this record.")
	require.NoError(t, log.Complete(start.Add(time.Second)))

	detail := ToProcessLogDetail(log)
	assert.True(t, detail.Completed)
	assert.Equal(t, 1, detail.SucceededCount)
	assert.Equal(t, 1, detail.FailedCount)
	require.Len(t, detail.ChangeRecords, 2)
	assert.Equal(t, "2", detail.ChangeRecords[1].RecordID)
	assert.Equal(t, 2, detail.ChangeRecords[1].RecordSequenceNumber)
	assert.Equal(t, []string{}, detail.ChangeRecords[0].Messages)
	assert.Len(t, detail.ChangeRecords[1].Messages, 1)
}

func TestSubmitBulkActionRequest_NumericOpts(t *testing.T) {
	var req SubmitBulkActionRequest
	body := `{"action_type":"Bulk Order Update","pk":{"0":"1"},"opts":{"customer_order_number":1000000,"ref":9007199254740993}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "1000000", req.Opts.String("customer_order_number"))
	assert.Equal(t, "9007199254740993", req.Opts.String("ref"))
}
