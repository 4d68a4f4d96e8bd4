package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jjudge-oj/imageforms/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator bound to the embedded migrations and the
// configured database.
func NewMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, PostgresURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations.
func MigrateUp(cfg config.DatabaseConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// MigrateDown reverts the given number of migrations, or all of them when
// steps is zero.
func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down failed: %w", err)
	}
	return nil
}
