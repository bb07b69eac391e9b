package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for UUID-keyed models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// RecordRefColumns stores a polymorphic record reference as a type/id column pair
type RecordRefColumns struct {
	Type string `gorm:"type:varchar(50);not null"`
	ID   string `gorm:"type:varchar(100);not null"`
}

// ToDomain converts the columns to a RecordRef
func (c RecordRefColumns) ToDomain() shared.RecordRef {
	return shared.NewRecordRef(c.Type, c.ID)
}

// RecordRefColumnsFromDomain creates the column pair from a RecordRef
func RecordRefColumnsFromDomain(ref shared.RecordRef) RecordRefColumns {
	return RecordRefColumns{Type: ref.Type, ID: ref.ID}
}

// encodeStrings stores a string list as a JSON array, never null
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(raw string) []string {
	values := make([]string, 0)
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &values)
	}
	return values
}
