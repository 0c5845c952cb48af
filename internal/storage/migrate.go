package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFiles embed.FS

const schemaTable = "fluxo_schema_migrations"

// withMigrator runs fn against a migrator bound to its own connection on dbPath,
// leaving the repository pool alone.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open schema connection: %w", err)
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: schemaTable})
	if err != nil {
		conn.Close()
		return fmt.Errorf("sqlite migration driver: %w", err)
	}

	src, err := iofs.New(schemaFiles, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("embedded schema source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("migrator: %w", err)
	}
	// Closing the migrator closes conn through the driver.
	defer m.Close()

	return fn(m)
}

// RunMigrations brings the ledger schema at dbPath up to date.
func RunMigrations(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the applied schema version and whether the last
// migration left the database dirty. Version 0 means no schema yet.
func SchemaVersion(dbPath string) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := withMigrator(dbPath, func(m *migrate.Migrate) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
