package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/audit"
)

// EntitySnapshotModel is the persistence model for audit snapshots.
type EntitySnapshotModel struct {
	BaseModel
	Recordable RecordRefColumns `gorm:"embedded;embeddedPrefix:recordable_"`
	UserID     uuid.UUID        `gorm:"type:uuid;index"`
	Context    string           `gorm:"type:varchar(100)"`
	Data       string           `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (EntitySnapshotModel) TableName() string {
	return "entity_snapshots"
}

// ToDomain converts the persistence model to a domain EntitySnapshot.
func (m *EntitySnapshotModel) ToDomain() *audit.EntitySnapshot {
	return &audit.EntitySnapshot{
		BaseEntity: m.BaseModel.ToDomain(),
		Recordable: m.Recordable.ToDomain(),
		UserID:     m.UserID,
		Context:    m.Context,
		Data:       json.RawMessage(m.Data),
	}
}

// EntitySnapshotModelFromDomain creates a new persistence model from a domain EntitySnapshot.
func EntitySnapshotModelFromDomain(s *audit.EntitySnapshot) *EntitySnapshotModel {
	m := &EntitySnapshotModel{
		Recordable: RecordRefColumnsFromDomain(s.Recordable),
		UserID:     s.UserID,
		Context:    s.Context,
		Data:       string(s.Data),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
