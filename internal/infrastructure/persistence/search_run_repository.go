package persistence

import (
	"context"
	"errors"

	"github.com/tradecomply/backend/internal/domain/search"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// searchRunInsertBatch bounds the rows per INSERT when storing result keys
const searchRunInsertBatch = 500

// GormSearchRunRepository implements search.Repository using GORM
type GormSearchRunRepository struct {
	db *gorm.DB
}

// NewGormSearchRunRepository creates a new GormSearchRunRepository
func NewGormSearchRunRepository(db *gorm.DB) *GormSearchRunRepository {
	return &GormSearchRunRepository{db: db}
}

// FindByID finds a search run by ID
func (r *GormSearchRunRepository) FindByID(ctx context.Context, id int64) (*search.SearchRun, error) {
	var model models.SearchRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllObjectKeys returns every result key of the run in result order
func (r *GormSearchRunRepository) FindAllObjectKeys(ctx context.Context, id int64) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).
		Model(&models.SearchRunResultModel{}).
		Where("search_run_id = ?", id).
		Order("position ASC").
		Pluck("object_key", &keys).Error; err != nil {
		return nil, err
	}
	if keys == nil {
		keys = make([]string, 0)
	}
	return keys, nil
}

// Save stores the run and replaces its result keys. TotalObjects is set from keys.
func (r *GormSearchRunRepository) Save(ctx context.Context, run *search.SearchRun, keys []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run.TotalObjects = len(keys)
		model := models.SearchRunModelFromDomain(run)
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		run.ID = model.ID

		if err := tx.Where("search_run_id = ?", run.ID).Delete(&models.SearchRunResultModel{}).Error; err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		rows := make([]models.SearchRunResultModel, len(keys))
		for i, key := range keys {
			rows[i] = models.SearchRunResultModel{SearchRunID: run.ID, Position: i + 1, ObjectKey: key}
		}
		return tx.CreateInBatches(rows, searchRunInsertBatch).Error
	})
}

// Ensure GormSearchRunRepository implements search.Repository
var _ search.Repository = (*GormSearchRunRepository)(nil)
