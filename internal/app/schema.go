package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/accreg-sync/internal/config"
)

// ErrSchemaNotMigrated is returned when postgres storage is configured but the
// migrations have not been applied
var ErrSchemaNotMigrated = errors.New("database schema is not migrated, run 'accreg-sync migrate up'")

// schemaVersionFunc reports the applied migration version and dirty flag
type schemaVersionFunc func(connString string) (uint, bool, error)

// verifySchema checks that the schema is usable before the server starts.
// Non-postgres storage needs no check.
func verifySchema(cfg *config.Config, versionFn schemaVersionFunc) error {
	if cfg.Storage.GetType(cfg.Database != nil) != config.StorageTypePostgres {
		return nil
	}
	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required for postgres storage")
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}

	version, dirty, err := versionFn(connString)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database schema version %d is dirty, fix it with 'accreg-sync migrate'", version)
	}
	if version == 0 {
		return ErrSchemaNotMigrated
	}

	slog.Info("Database schema verified", "version", version)
	return nil
}
