package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps of UUID-keyed entities
// (users, comments, entity snapshots). Trade records use database ids instead.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID and stamps both timestamps with now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch records a modification
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
