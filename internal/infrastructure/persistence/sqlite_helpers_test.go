package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/trade"
	"github.com/tradecomply/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupBulkTestDB opens an in-memory SQLite database with every bulk table migrated.
// A single connection keeps the in-memory schema visible to all queries.
func setupBulkTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.UserModel{},
		&models.OrderModel{},
		&models.EntryModel{},
		&models.CommentModel{},
		&models.EntitySnapshotModel{},
		&models.ProcessLogModel{},
		&models.ChangeRecordModel{},
		&models.SearchRunModel{},
		&models.SearchRunResultModel{},
	)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, perms ...identity.Permission) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.com", perms...)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Save(context.Background(), u))
	return u
}

func seedOrder(t *testing.T, db *gorm.DB, number string) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(number)
	require.NoError(t, err)
	require.NoError(t, NewGormOrderRepository(db).Save(context.Background(), o))
	return o
}

func seedEntry(t *testing.T, db *gorm.DB, brokerRef string) *trade.Entry {
	t.Helper()
	e, err := trade.NewEntry(brokerRef)
	require.NoError(t, err)
	require.NoError(t, NewGormEntryRepository(db).Save(context.Background(), e))
	return e
}
