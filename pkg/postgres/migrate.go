package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending migrations found at path.
func RunMigrations(path, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}

// RollbackMigrations reverts the given number of applied migrations.
func RollbackMigrations(path, dsn string, steps int) error {
	const op = "postgres.RollbackMigrations"

	if steps <= 0 {
		return fmt.Errorf("%s: steps must be positive, got %d", op, steps)
	}

	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to roll back migrations: %w", op, err)
	}

	return nil
}

// MigrationVersion returns the current schema version and whether it is dirty.
// A zero version with a nil error means no migration was applied yet.
func MigrationVersion(path, dsn string) (uint, bool, error) {
	const op = "postgres.MigrationVersion"

	m, err := migrate.New(path, dsn)
	if err != nil {
		return 0, false, fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("%s: failed to read version: %w", op, err)
	}

	return version, dirty, nil
}
