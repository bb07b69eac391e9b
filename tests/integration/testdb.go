// Package integration runs the bulk action runner against real PostgreSQL and
// Redis instances started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/migration"
	"github.com/tradecomply/backend/migrations"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testDBUser     = "postgres"
	testDBPassword = "admin123"
)

var (
	// Shared container for all tests in the package
	sharedContainer   testcontainers.Container
	sharedContainerMu sync.Mutex
	sharedConfig      config.DatabaseConfig
)

// TestDB is a migrated PostgreSQL database
type TestDB struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Config config.DatabaseConfig
	t      *testing.T
}

// NewSharedTestDB returns a connection to the package-wide container, starting
// and migrating it on first use. Tables are truncated before returning.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("bulk_test"),
			tcpostgres.WithUsername(testDBUser),
			tcpostgres.WithPassword(testDBPassword),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "5432/tcp")
		require.NoError(t, err)
		portNum, err := strconv.Atoi(port.Port())
		require.NoError(t, err)

		sharedContainer = container
		sharedConfig = config.DatabaseConfig{
			Host:            host,
			Port:            portNum,
			User:            testDBUser,
			Password:        testDBPassword,
			DBName:          "bulk_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5,
		}

		db, sqlDB := connectToDatabase(t, sharedConfig.DSN())
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()
		_ = db
	}

	db, sqlDB := connectToDatabase(t, sharedConfig.DSN())
	testDB := &TestDB{DB: db, SqlDB: sqlDB, Config: sharedConfig, t: t}
	testDB.CleanTables()

	t.Cleanup(func() {
		_ = testDB.SqlDB.Close()
	})
	return testDB
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate table %s", table)
	}
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// runMigrations applies the embedded schema
func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared containers. Call it from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
	}
	if sharedRedis != nil {
		_ = sharedRedis.Terminate(ctx)
		sharedRedis = nil
	}
}
