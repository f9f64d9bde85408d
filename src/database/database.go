// src/database/database.go
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Open connects to the SQLite file at databasePath, creating it if needed.
// The caller owns the handle and must Close it.
func Open(databasePath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database at %s: %v", models.ErrStorage, databasePath, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database at %s: %v", models.ErrStorage, databasePath, err)
	}

	logger.L.Debug("Database connection established", "path", databasePath)
	return db, nil
}

// RunMigrations brings the bookkeeping tables up to date. The bank table itself
// is not migrated; it is rebuilt by ReplaceTable on every run.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("%w: database connection is not initialized", models.ErrStorage)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%w: could not create sqlite migration driver: %v", models.ErrStorage, err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("%w: could not read embedded migrations: %v", models.ErrStorage, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%w: migration instance creation failed: %v", models.ErrStorage, err)
	}

	// m.Close would close db as well; the caller still needs it.
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Debug("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("%w: failed to apply migrations: %v", models.ErrStorage, err)
	}

	logger.L.Debug("Database migrations applied successfully.")
	return nil
}
