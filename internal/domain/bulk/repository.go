package bulk

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// ProcessLogFilter narrows process log listings
type ProcessLogFilter struct {
	ActionType string
	UserID     *uuid.UUID
	Completed  *bool
}

// ProcessLogListResult is a page of process logs, without change records
type ProcessLogListResult struct {
	Items      []*ProcessLog
	TotalCount int64
	Page       int
	PageSize   int
}

// ProcessLogRepository defines the interface for process log persistence
type ProcessLogRepository interface {
	// Create inserts a new process log row
	Create(ctx context.Context, log *ProcessLog) error

	// Save updates the process log bracket (completed_at)
	Save(ctx context.Context, log *ProcessLog) error

	// CreateChangeRecord inserts one outcome row
	CreateChangeRecord(ctx context.Context, cr *ChangeRecord) error

	// SaveChangeRecordMessages persists the message list of an existing outcome
	SaveChangeRecordMessages(ctx context.Context, cr *ChangeRecord) error

	// FindByID loads a process log with its change records ordered by sequence number
	FindByID(ctx context.Context, id uuid.UUID) (*ProcessLog, error)

	// FindAll lists process logs, newest first
	FindAll(ctx context.Context, filter ProcessLogFilter, page, pageSize int) (*ProcessLogListResult, error)
}

// Record is any business record a bulk action can target
type Record interface {
	RecordType() string
	RecordID() string
	Ref() shared.RecordRef
}

// RecordDirectory looks records up through an explicit registry of type tags
type RecordDirectory interface {
	// FindRecord returns shared.ErrNotFound when the record does not exist and an
	// error for unregistered module types
	FindRecord(ctx context.Context, moduleType, id string) (Record, error)

	// ModuleTypes lists the registered type tags
	ModuleTypes() []string
}
