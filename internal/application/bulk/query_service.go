package bulkapp

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/bulk"
)

// ProcessLogQueryService is the read side of bulk runs
type ProcessLogQueryService struct {
	repo bulk.ProcessLogRepository
}

// NewProcessLogQueryService creates a ProcessLogQueryService
func NewProcessLogQueryService(repo bulk.ProcessLogRepository) *ProcessLogQueryService {
	return &ProcessLogQueryService{repo: repo}
}

// Get returns one process log with its ordered change records
func (s *ProcessLogQueryService) Get(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of process logs
func (s *ProcessLogQueryService) List(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repo.FindAll(ctx, filter, page, pageSize)
}
