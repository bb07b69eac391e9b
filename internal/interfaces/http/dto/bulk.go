package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/bulk"
)

// SubmitBulkActionRequest is the body of a bulk action submission.
// search_run_id may be sent as a JSON number or string.
type SubmitBulkActionRequest struct {
	ActionType  string          `json:"action_type" binding:"required" example:"Bulk Comment"`
	SearchRunID json.RawMessage `json:"search_run_id,omitempty" swaggertype:"string" example:"42"`
	PK          bulk.PK         `json:"pk" swaggertype:"object"`
	Opts        bulk.Options    `json:"opts"`
}

// Params converts the selection fields into runner parameters
func (r SubmitBulkActionRequest) Params() bulk.Params {
	return bulk.Params{
		SearchRunID: rawScalar(r.SearchRunID),
		PK:          r.PK,
	}
}

// rawScalar returns a JSON string's contents or any other value's literal text
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ListProcessLogsRequest holds the process log listing filters
type ListProcessLogsRequest struct {
	ListRequest
	ActionType string `form:"action_type"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	Completed  *bool  `form:"completed"`
}

// Filter converts the query into a repository filter
func (r ListProcessLogsRequest) Filter() bulk.ProcessLogFilter {
	f := bulk.ProcessLogFilter{
		ActionType: r.ActionType,
		Completed:  r.Completed,
	}
	if id, err := uuid.Parse(r.UserID); err == nil {
		f.UserID = &id
	}
	return f
}

// ProcessLogSummary is a process log as listed
type ProcessLogSummary struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ActionType  string     `json:"action_type" example:"Bulk Order Update"`
	SnapshotKey string     `json:"snapshot_key,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Completed   bool       `json:"completed"`
}

// ProcessLogDetail is a process log with its ordered outcomes
type ProcessLogDetail struct {
	ProcessLogSummary
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
	ChangeRecords  []ChangeRecordResponse `json:"change_records"`
}

// ChangeRecordResponse is one per-record outcome
type ChangeRecordResponse struct {
	ID                   uuid.UUID `json:"id"`
	RecordType           string    `json:"record_type" example:"Order"`
	RecordID             string    `json:"record_id" example:"1001"`
	RecordSequenceNumber int       `json:"record_sequence_number" example:"1"`
	Failed               bool      `json:"failed"`
	Messages             []string  `json:"messages"`
	CreatedAt            time.Time `json:"created_at"`
}

// ToProcessLogSummary maps a domain process log to its listing form
func ToProcessLogSummary(l *bulk.ProcessLog) ProcessLogSummary {
	return ProcessLogSummary{
		ID:          l.ID,
		UserID:      l.UserID,
		ActionType:  l.ActionType,
		SnapshotKey: l.SnapshotKey,
		StartedAt:   l.StartedAt,
		CompletedAt: l.CompletedAt,
		Completed:   l.IsComplete(),
	}
}

// ToProcessLogSummaries maps a page of process logs
func ToProcessLogSummaries(logs []*bulk.ProcessLog) []ProcessLogSummary {
	out := make([]ProcessLogSummary, 0, len(logs))
	for _, l := range logs {
		out = append(out, ToProcessLogSummary(l))
	}
	return out
}

// ToProcessLogDetail maps a process log with its change records
func ToProcessLogDetail(l *bulk.ProcessLog) ProcessLogDetail {
	records := make([]ChangeRecordResponse, 0, len(l.ChangeRecords))
	for _, cr := range l.ChangeRecords {
		messages := cr.Messages
		if messages == nil {
			messages = []string{}
		}
		records = append(records, ChangeRecordResponse{
			ID:                   cr.ID,
			RecordType:           cr.Recordable.Type,
			RecordID:             cr.Recordable.ID,
			RecordSequenceNumber: cr.RecordSequenceNumber,
			Failed:               cr.Failed,
			Messages:             messages,
			CreatedAt:            cr.CreatedAt,
		})
	}
	return ProcessLogDetail{
		ProcessLogSummary: ToProcessLogSummary(l),
		SucceededCount:    l.SucceededCount(),
		FailedCount:       l.FailedCount(),
		ChangeRecords:     records,
	}
}
