package persistence

import (
	"context"
	"errors"

	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/domain/trade"
	"github.com/tradecomply/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates the order when it has no ID yet, otherwise updates it
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	order.ID = model.ID
	return nil
}

// GormEntryRepository implements trade.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// FindByID finds a customs entry by ID
func (r *GormEntryRepository) FindByID(ctx context.Context, id int64) (*trade.Entry, error) {
	var model models.EntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates the entry when it has no ID yet, otherwise updates it
func (r *GormEntryRepository) Save(ctx context.Context, entry *trade.Entry) error {
	model := models.EntryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

var (
	_ trade.OrderRepository = (*GormOrderRepository)(nil)
	_ trade.EntryRepository = (*GormEntryRepository)(nil)
)
