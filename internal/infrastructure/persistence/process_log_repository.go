package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProcessLogRepository implements bulk.ProcessLogRepository using GORM
type GormProcessLogRepository struct {
	db *gorm.DB
}

// NewGormProcessLogRepository creates a new GormProcessLogRepository
func NewGormProcessLogRepository(db *gorm.DB) *GormProcessLogRepository {
	return &GormProcessLogRepository{db: db}
}

// Create inserts a new process log row
func (r *GormProcessLogRepository) Create(ctx context.Context, log *bulk.ProcessLog) error {
	return r.db.WithContext(ctx).Create(models.ProcessLogModelFromDomain(log)).Error
}

// Save updates the bracket columns of an existing process log
func (r *GormProcessLogRepository) Save(ctx context.Context, log *bulk.ProcessLog) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProcessLogModel{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"snapshot_key": log.SnapshotKey,
			"completed_at": log.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateChangeRecord inserts one outcome row
func (r *GormProcessLogRepository) CreateChangeRecord(ctx context.Context, cr *bulk.ChangeRecord) error {
	return r.db.WithContext(ctx).Create(models.ChangeRecordModelFromDomain(cr)).Error
}

// SaveChangeRecordMessages rewrites the message list of an existing outcome
func (r *GormProcessLogRepository) SaveChangeRecordMessages(ctx context.Context, cr *bulk.ChangeRecord) error {
	model := models.ChangeRecordModelFromDomain(cr)
	result := r.db.WithContext(ctx).
		Model(&models.ChangeRecordModel{}).
		Where("id = ?", cr.ID).
		Update("messages", model.Messages)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads a process log with its change records ordered by sequence number
func (r *GormProcessLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error) {
	var model models.ProcessLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var records []models.ChangeRecordModel
	if err := r.db.WithContext(ctx).
		Where("process_log_id = ?", id).
		Order("record_sequence_number ASC, created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	log := model.ToDomain()
	for i := range records {
		log.ChangeRecords = append(log.ChangeRecords, records[i].ToDomain())
	}
	return log, nil
}

// FindAll lists process logs, newest first. Change records are not loaded.
func (r *GormProcessLogRepository) FindAll(
	ctx context.Context,
	filter bulk.ProcessLogFilter,
	page, pageSize int,
) (*bulk.ProcessLogListResult, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.ProcessLogModel{}), filter)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var rows []models.ProcessLogModel
	if err := query.Order("started_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*bulk.ProcessLog, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return &bulk.ProcessLogListResult{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (r *GormProcessLogRepository) applyFilters(query *gorm.DB, filter bulk.ProcessLogFilter) *gorm.DB {
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Completed != nil {
		if *filter.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}
	return query
}

// Ensure GormProcessLogRepository implements bulk.ProcessLogRepository
var _ bulk.ProcessLogRepository = (*GormProcessLogRepository)(nil)
