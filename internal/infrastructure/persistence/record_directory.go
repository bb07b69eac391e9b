package persistence

import (
	"context"
	"fmt"
	"sort"

	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// ErrUnknownModuleType is returned for record type tags with no registered loader
var ErrUnknownModuleType = shared.NewDomainError("UNKNOWN_MODULE_TYPE", "Unknown module type")

type recordLoader func(ctx context.Context, db *gorm.DB, id int64) (bulk.Record, error)

// recordLoaders is the explicit registry of record types reachable by bulk actions
var recordLoaders = map[string]recordLoader{
	trade.RecordTypeOrder: func(ctx context.Context, db *gorm.DB, id int64) (bulk.Record, error) {
		return NewGormOrderRepository(db).FindByID(ctx, id)
	},
	trade.RecordTypeEntry: func(ctx context.Context, db *gorm.DB, id int64) (bulk.Record, error) {
		return NewGormEntryRepository(db).FindByID(ctx, id)
	},
}

// GormRecordDirectory implements bulk.RecordDirectory over the registered record tables
type GormRecordDirectory struct {
	db *gorm.DB
}

// NewGormRecordDirectory creates a new GormRecordDirectory
func NewGormRecordDirectory(db *gorm.DB) *GormRecordDirectory {
	return &GormRecordDirectory{db: db}
}

// FindRecord loads the record with the given type tag and ID
func (d *GormRecordDirectory) FindRecord(ctx context.Context, moduleType, id string) (bulk.Record, error) {
	load, ok := recordLoaders[moduleType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModuleType, moduleType)
	}
	recordID, err := trade.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	record, err := load(ctx, d.db, recordID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ModuleTypes lists the registered type tags in sorted order
func (d *GormRecordDirectory) ModuleTypes() []string {
	types := make([]string, 0, len(recordLoaders))
	for t := range recordLoaders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Ensure GormRecordDirectory implements bulk.RecordDirectory
var _ bulk.RecordDirectory = (*GormRecordDirectory)(nil)
