// Package migration applies the SQL schema in migrations/ with golang-migrate.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"erpcore/pkg/logger"
)

// Migrator wraps a golang-migrate instance bound to one database.
type Migrator struct {
	migrate *migrate.Migrate
	db      *sql.DB
}

// Open connects with lib/pq and prepares the migrations found at path.
func Open(databaseURL, path string) (*Migrator, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	m, err := New(db, path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// New creates a Migrator over an existing connection.
func New(db *sql.DB, path string) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{migrate: m, db: db}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(context.Background(), "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.migrate.Version()
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	logger.Info(context.Background(), "migrations applied", "version", version, "dirty", dirty)
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(context.Background(), "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	logger.Info(context.Background(), "all migrations rolled back")
	return nil
}

// Version returns the current schema version. ok is false before the first migration.
func (m *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
