package persistence

import (
	"context"

	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/audit"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/comment"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements bulkapp.TransactionScope using GORM transactions.
// Every repository handed to fn shares one transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos bulkapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) ProcessLogs() bulk.ProcessLogRepository {
	return NewGormProcessLogRepository(r.tx)
}

func (r *gormTransactionalRepositories) Records() bulk.RecordDirectory {
	return NewGormRecordDirectory(r.tx)
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Entries() trade.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Comments() comment.Repository {
	return NewGormCommentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Snapshots() audit.SnapshotRepository {
	return NewGormSnapshotRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ bulkapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ bulkapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
