package bulk

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// ProcessLog is the append-only audit trail of one bulk run
type ProcessLog struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	ActionType    string          `json:"action_type"`
	SnapshotKey   string          `json:"snapshot_key,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	ChangeRecords []*ChangeRecord `json:"change_records"`
}

// NewProcessLog opens a run bracket stamped with startedAt
func NewProcessLog(userID uuid.UUID, actionType string, startedAt time.Time) (*ProcessLog, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Process log requires a user")
	}
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		return nil, shared.NewDomainError("INVALID_ACTION_TYPE", "Process log requires an action type")
	}
	return &ProcessLog{
		ID:            uuid.New(),
		UserID:        userID,
		ActionType:    actionType,
		StartedAt:     startedAt,
		ChangeRecords: make([]*ChangeRecord, 0),
	}, nil
}

// NextSequenceNumber returns the sequence number the next change record must carry
func (l *ProcessLog) NextSequenceNumber() int {
	return len(l.ChangeRecords) + 1
}

// AppendChangeRecord creates the outcome for the record at sequence number seq.
// Sequence numbers must be contiguous from 1.
func (l *ProcessLog) AppendChangeRecord(recordable shared.RecordRef, seq int, failed bool, at time.Time) (*ChangeRecord, error) {
	if l.IsComplete() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot append to a completed process log")
	}
	if seq != l.NextSequenceNumber() {
		return nil, shared.NewDomainError("INVALID_SEQUENCE_NUMBER",
			fmt.Sprintf("Expected record sequence number %d, got %d", l.NextSequenceNumber(), seq))
	}
	cr := &ChangeRecord{
		ID:                   uuid.New(),
		ProcessLogID:         l.ID,
		Recordable:           recordable,
		RecordSequenceNumber: seq,
		Failed:               failed,
		Messages:             make([]string, 0),
		CreatedAt:            at,
	}
	l.ChangeRecords = append(l.ChangeRecords, cr)
	return cr, nil
}

// CountAt returns how many change records carry sequence number seq
func (l *ProcessLog) CountAt(seq int) int {
	n := 0
	for _, cr := range l.ChangeRecords {
		if cr.RecordSequenceNumber == seq {
			n++
		}
	}
	return n
}

// Complete closes the run bracket
func (l *ProcessLog) Complete(at time.Time) error {
	if l.IsComplete() {
		return shared.NewDomainError("INVALID_STATE", "Process log is already complete")
	}
	l.CompletedAt = &at
	return nil
}

// IsComplete returns true once the bracket has been closed
func (l *ProcessLog) IsComplete() bool {
	return l.CompletedAt != nil
}

// FailedCount returns the number of failed outcomes
func (l *ProcessLog) FailedCount() int {
	n := 0
	for _, cr := range l.ChangeRecords {
		if cr.Failed {
			n++
		}
	}
	return n
}

// SucceededCount returns the number of successful outcomes
func (l *ProcessLog) SucceededCount() int {
	return len(l.ChangeRecords) - l.FailedCount()
}

// Duration returns the run duration, or zero for an incomplete run
func (l *ProcessLog) Duration() time.Duration {
	if l.CompletedAt == nil {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}
