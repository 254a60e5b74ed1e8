package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/okian/imobrank/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

// Migrate applies pending schema migrations for the store's driver.
func (s *Store) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(embeddedMigrations, "migrations/"+s.driver)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var (
		driver database.Driver
		owned  *sql.DB
	)
	switch s.driver {
	case DriverPostgres:
		// The postgres driver pins a connection and closes its *sql.DB on
		// Close, so it gets a handle of its own.
		owned, err = sql.Open("pgx", s.dsn)
		if err != nil {
			return fmt.Errorf("open migration connection: %w", err)
		}
		driver, err = postgres.WithInstance(owned, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.driver)
	}
	if err != nil {
		if owned != nil {
			_ = owned.Close()
		}
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, s.driver, driver)
	if err != nil {
		if owned != nil {
			_ = driver.Close()
		}
		return fmt.Errorf("create migrator: %w", err)
	}
	if owned != nil {
		defer func() {
			_, _ = migrator.Close()
		}()
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// The sqlite migrator is not closed: it would close the shared *sql.DB.

	version, dirty, _ := migrator.Version()
	s.log.Info(ctx, "schema migrated", logger.Int("version", int(version)), logger.Bool("dirty", dirty))
	return nil
}
