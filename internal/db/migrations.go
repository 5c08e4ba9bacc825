package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// migrationFiles holds one directory of numbered migrations per dialect.
// Append new migrations; never edit one that has shipped.
//
//go:embed migrations
var migrationFiles embed.FS

// Migrate brings the schema up to date. It is safe to call on every start.
func Migrate(db *sqlx.DB) error {
	var (
		dir    string
		driver database.Driver
		err    error
	)
	switch db.DriverName() {
	case DriverSQLite:
		dir = "migrations/sqlite"
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	case DriverPostgres:
		dir = "migrations/postgres"
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	// Not closing m: it would close the shared pool.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
