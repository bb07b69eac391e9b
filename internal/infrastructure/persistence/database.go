package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tradecomply/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the PostgreSQL connection pool shared by the repositories
type Database struct {
	DB *gorm.DB
}

// Open connects to PostgreSQL, sizes the pool from cfg and verifies the
// connection before returning. A nil gormLogger silences GORM.
func Open(ctx context.Context, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Close closes the pool
func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable
func (d *Database) Ping() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Stats returns connection pool statistics
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Transaction runs fn in a transaction, rolling back when it returns an error
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}
