package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "storefront_schema_migrations"

func newMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	target, err := postgres.WithInstance(conn, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("migration target: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "postgres", target)
}

// RunMigrations brings the schema up to the latest embedded version. A dirty
// schema is refused so a half-applied migration is fixed by hand.
func RunMigrations(dsn string, logger *zap.Logger) error {
	conn, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer conn.Close()

	m, err := newMigrator(conn)
	if err != nil {
		return err
	}

	if v, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("schema is dirty at version %d", v)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("schema already up to date")
	case err != nil:
		return fmt.Errorf("migrate up: %w", err)
	}

	v, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("schema ready", zap.Uint("version", v))
	return nil
}
