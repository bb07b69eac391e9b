package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// EntitySnapshot is a point-in-time copy of a record written after a change
type EntitySnapshot struct {
	shared.BaseEntity
	Recordable shared.RecordRef
	UserID     uuid.UUID
	Context    string
	Data       json.RawMessage
}

// NewEntitySnapshot captures the JSON form of record
func NewEntitySnapshot(ref shared.RecordRef, userID uuid.UUID, reason string, record any) (*EntitySnapshot, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError("INVALID_RECORDABLE", "Snapshot must reference a record")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot of %s: %w", ref, err)
	}
	return &EntitySnapshot{
		BaseEntity: shared.NewBaseEntity(),
		Recordable: ref,
		UserID:     userID,
		Context:    reason,
		Data:       data,
	}, nil
}

// SnapshotRepository defines the interface for audit snapshot persistence
type SnapshotRepository interface {
	Create(ctx context.Context, s *EntitySnapshot) error
	FindByRecordable(ctx context.Context, ref shared.RecordRef) ([]EntitySnapshot, error)
}
