package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/search"
)

// SearchRunModel is the persistence model for a materialized saved search.
type SearchRunModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(200)"`
	TotalObjects int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SearchRunModel) TableName() string {
	return "search_runs"
}

// ToDomain converts the persistence model to a domain SearchRun.
func (m *SearchRunModel) ToDomain() *search.SearchRun {
	return &search.SearchRun{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         m.Name,
		TotalObjects: m.TotalObjects,
		CreatedAt:    m.CreatedAt,
	}
}

// SearchRunModelFromDomain creates a new persistence model from a domain SearchRun.
func SearchRunModelFromDomain(r *search.SearchRun) *SearchRunModel {
	return &SearchRunModel{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		TotalObjects: r.TotalObjects,
		CreatedAt:    r.CreatedAt,
	}
}

// SearchRunResultModel is one object key of a search run, in result order.
type SearchRunResultModel struct {
	SearchRunID int64  `gorm:"primaryKey;autoIncrement:false"`
	Position    int    `gorm:"primaryKey;autoIncrement:false"`
	ObjectKey   string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (SearchRunResultModel) TableName() string {
	return "search_run_results"
}
