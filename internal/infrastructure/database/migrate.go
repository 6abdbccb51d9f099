package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"conversiq-server/migrations"
)

// MigrationStatus reports where the schema stands. Version 0 means no
// migration has been applied. Applied is set when Migrate changed the schema.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Migrate applies all pending SQL migrations bundled with the service.
func Migrate(ctx context.Context, gormDB *gorm.DB, log zerolog.Logger) (MigrationStatus, error) {
	var status MigrationStatus
	err := withMigrator(ctx, gormDB, func(migrator *migrate.Migrate) error {
		entries, err := fs.ReadDir(migrations.FS, ".")
		if err != nil {
			return fmt.Errorf("read migration directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				log.Debug().Str("file", entry.Name()).Msg("Found migration file")
			}
		}

		version, dirty, err := migrator.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("No migrations have been applied yet")
		case err != nil:
			log.Warn().Err(err).Msg("Error getting migration version")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration state")
		}

		// A failed CONCURRENTLY index build leaves the version dirty; retry it.
		if dirty {
			log.Warn().Uint("version", version).Msg("Database is in dirty state, forcing previous version")
			previous := int(version) - 1
			if previous < 1 {
				previous = -1 // nil version
			}
			if forceErr := migrator.Force(previous); forceErr != nil {
				return fmt.Errorf("force version %d to clear dirty state: %w", previous, forceErr)
			}
		}

		if err := migrator.Up(); err != nil {
			if !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("apply migrations: %w", err)
			}
			log.Info().Msg("No new migrations to apply")
		} else {
			status.Applied = true
			log.Info().Msg("Migrations applied successfully")
		}

		status.Version, status.Dirty, err = migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read migration version: %w", err)
		}
		return nil
	})
	return status, err
}

// Status reports the current migration version without applying anything.
func Status(ctx context.Context, gormDB *gorm.DB) (MigrationStatus, error) {
	var status MigrationStatus
	err := withMigrator(ctx, gormDB, func(migrator *migrate.Migrate) error {
		version, dirty, err := migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		status.Version, status.Dirty = version, dirty
		return nil
	})
	return status, err
}

func withMigrator(ctx context.Context, gormDB *gorm.DB, fn func(*migrate.Migrate) error) (err error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("retrieve sql db: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire dedicated connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("initialize postgres driver: %w", err)
	}
	defer func() {
		if closeErr := driver.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration connection: %w", closeErr)
		}
	}()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration source: %w", closeErr)
		}
	}()

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	return fn(migrator)
}
