package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/infrastructure/migration"
	"github.com/tradecomply/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(config.LogConfig{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.New(db, migrationsPath, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("source", sourceName(migrationsPath)),
	)

	switch command {
	case "up":
		err = m.Up()

	case "down":
		err = m.Down()

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		err = m.Steps(n)

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, convErr := strconv.ParseUint(args[1], 10, 32)
		if convErr != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		err = m.GoTo(uint(version))

	case "version":
		status, statusErr := m.Status()
		if statusErr != nil {
			log.Fatal("Failed to get version", zap.Error(statusErr))
		}
		if status.Version == 0 {
			log.Info("No migrations applied")
			return
		}
		log.Info("Current migration version",
			zap.Uint("version", status.Version),
			zap.Bool("dirty", status.Dirty),
		)

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		err = m.Force(version)

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func printUsage() {
	fmt.Println(`Bulk action database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                Apply all pending migrations
  down              Roll back all migrations
  step <n>          Apply n migrations (positive=up, negative=down)
  goto <version>    Migrate to a specific version
  version           Show current migration version
  force <version>   Force set migration version (use with caution)

Flags:
  -path string        Read migrations from a directory (default: embedded)
  -log-level string   Log level: debug, info, warn, error (default: info)

Environment Variables:
  TC_DATABASE_HOST, TC_DATABASE_PORT, TC_DATABASE_USER,
  TC_DATABASE_PASSWORD, TC_DATABASE_DBNAME, TC_DATABASE_SSLMODE`)
}
