// Package search holds materialized saved-search results.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchRun is a previously materialized result set of a saved search
type SearchRun struct {
	ID           int64
	UserID       uuid.UUID
	Name         string
	TotalObjects int
	CreatedAt    time.Time
}

// Repository defines the interface for search run lookups
type Repository interface {
	// FindByID finds a search run by ID
	FindByID(ctx context.Context, id int64) (*SearchRun, error)

	// FindAllObjectKeys returns the full ordered key set of the run, not a page
	FindAllObjectKeys(ctx context.Context, id int64) ([]string, error)

	// Save stores the run and replaces its result keys
	Save(ctx context.Context, run *SearchRun, keys []string) error
}
