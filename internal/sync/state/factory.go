package state

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/status"
)

// NewStateService picks the state backend for the configured storage type.
//
// Postgres storage keeps the status in the sync_state table and requires pool.
// Every other storage type persists the status through statusPersistence.
func NewStateService(
	cfg *config.Config,
	statusPersistence status.StatusPersistence,
	pool *pgxpool.Pool,
) (SyncStateService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Storage.GetType(cfg.Database != nil) == config.StorageTypePostgres {
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is postgres")
		}
		return NewDBStateService(pool), nil
	}

	if statusPersistence == nil {
		return nil, fmt.Errorf("status persistence is required when storage type is %s",
			cfg.Storage.GetType(false))
	}
	return NewFileStateService(statusPersistence), nil
}
