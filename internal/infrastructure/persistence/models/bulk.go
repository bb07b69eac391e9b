package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/bulk"
)

// ProcessLogModel is the persistence model for the ProcessLog domain entity.
type ProcessLogModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ActionType  string    `gorm:"type:varchar(100);not null;index"`
	SnapshotKey string    `gorm:"type:varchar(500)"`
	StartedAt   time.Time `gorm:"not null;index"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (ProcessLogModel) TableName() string {
	return "bulk_process_logs"
}

// ToDomain converts the persistence model to a domain ProcessLog without change records.
func (m *ProcessLogModel) ToDomain() *bulk.ProcessLog {
	return &bulk.ProcessLog{
		ID:            m.ID,
		UserID:        m.UserID,
		ActionType:    m.ActionType,
		SnapshotKey:   m.SnapshotKey,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		ChangeRecords: make([]*bulk.ChangeRecord, 0),
	}
}

// FromDomain populates the persistence model from a domain ProcessLog.
func (m *ProcessLogModel) FromDomain(l *bulk.ProcessLog) {
	m.ID = l.ID
	m.UserID = l.UserID
	m.ActionType = l.ActionType
	m.SnapshotKey = l.SnapshotKey
	m.StartedAt = l.StartedAt
	m.CompletedAt = l.CompletedAt
}

// ProcessLogModelFromDomain creates a new persistence model from a domain ProcessLog.
func ProcessLogModelFromDomain(l *bulk.ProcessLog) *ProcessLogModel {
	m := &ProcessLogModel{}
	m.FromDomain(l)
	return m
}

// ChangeRecordModel is the persistence model for the ChangeRecord domain entity.
// Messages are stored as a JSON array.
type ChangeRecordModel struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primary_key"`
	ProcessLogID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_change_record_sequence,priority:1"`
	Recordable           RecordRefColumns `gorm:"embedded;embeddedPrefix:recordable_"`
	RecordSequenceNumber int              `gorm:"not null;uniqueIndex:idx_change_record_sequence,priority:2"`
	Failed               bool             `gorm:"not null;default:false"`
	Messages             string           `gorm:"type:text;not null"`
	CreatedAt            time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChangeRecordModel) TableName() string {
	return "bulk_change_records"
}

// ToDomain converts the persistence model to a domain ChangeRecord.
func (m *ChangeRecordModel) ToDomain() *bulk.ChangeRecord {
	return &bulk.ChangeRecord{
		ID:                   m.ID,
		ProcessLogID:         m.ProcessLogID,
		Recordable:           m.Recordable.ToDomain(),
		RecordSequenceNumber: m.RecordSequenceNumber,
		Failed:               m.Failed,
		Messages:             decodeStrings(m.Messages),
		CreatedAt:            m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ChangeRecord.
func (m *ChangeRecordModel) FromDomain(cr *bulk.ChangeRecord) {
	m.ID = cr.ID
	m.ProcessLogID = cr.ProcessLogID
	m.Recordable = RecordRefColumnsFromDomain(cr.Recordable)
	m.RecordSequenceNumber = cr.RecordSequenceNumber
	m.Failed = cr.Failed
	m.Messages = encodeStrings(cr.Messages)
	m.CreatedAt = cr.CreatedAt
}

// ChangeRecordModelFromDomain creates a new persistence model from a domain ChangeRecord.
func ChangeRecordModelFromDomain(cr *bulk.ChangeRecord) *ChangeRecordModel {
	m := &ChangeRecordModel{}
	m.FromDomain(cr)
	return m
}
