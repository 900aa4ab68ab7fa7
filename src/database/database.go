// backend/src/database/database.go
package database

import (
	"database/sql"
	"errors"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/username/asakim/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Connection pragmas. WAL keeps readers alive while a payment import is
// writing, the busy timeout covers migration locks, and foreign keys back
// the payment -> split cascade.
var connPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(on)",
}

func dsn(databasePath string) string {
	params := make([]string, len(connPragmas))
	for i, pragma := range connPragmas {
		params[i] = "_pragma=" + pragma
	}
	return databasePath + "?" + strings.Join(params, "&")
}

// InitDB opens the sqlite database and stores the handle in the package
// global. Terminates the process on failure; nothing works without a store.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", dsn(databasePath))
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	// Single connection: sqlite serializes writes anyway and one writer
	// avoids SQLITE_BUSY during sequential payment imports.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		stdlog.Fatalf("failed to ping database: %v", err)
	}
	DB = db
	logger.L.Info("Database connection established", "pragmas", strings.Join(connPragmas, " "))
}

// migrationsSourceURL resolves where the migration files live: a fixed
// container path in production, the local db/migrations directory otherwise.
func migrationsSourceURL() string {
	if os.Getenv("GO_ENV") == "PRO" {
		return "file:///app/db/migrations"
	}
	cwd, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("failed to get current working directory: %v", err)
	}
	return "file://" + filepath.ToSlash(filepath.Join(cwd, "db", "migrations"))
}

// RunMigrations applies any pending schema migrations. Call after InitDB.
func RunMigrations(databasePath string) {
	if DB == nil {
		logger.L.Error("Database connection is not initialized before running migrations")
		return
	}

	driver, err := sqlite.WithInstance(DB, &sqlite.Config{})
	if err != nil {
		stdlog.Fatalf("could not create sqlite migration driver: %v", err)
	}

	sourceURL := migrationsSourceURL()
	m, err := migrate.NewWithDatabaseInstance(sourceURL, databasePath, driver)
	if err != nil {
		logger.L.Error("Migration instance creation failed", "source", sourceURL, "error", err)
		stdlog.Fatalf("migration instance creation failed: %v", err)
	}

	logger.L.Info("Applying database migrations...", "source", sourceURL)
	switch err := m.Up(); {
	case err == nil:
		logger.L.Info("Database migrations applied successfully.")
	case errors.Is(err, migrate.ErrNoChange):
		logger.L.Info("No new database migrations to apply.")
	default:
		logger.L.Error("Failed to apply migrations", "error", err)
		stdlog.Fatalf("failed to apply migrations: %v", err)
	}
}
