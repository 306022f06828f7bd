package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/status"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/memory"
	"github.com/stacklok/accreg-sync/internal/store/sqlite"
	"github.com/stacklok/accreg-sync/internal/sync/state"
)

// LocalFactory creates storage components that live in the process or on local disk:
// a sqlite or in-memory store and a status file for the sync state.
type LocalFactory struct {
	config            *config.Config
	statusPersistence status.StatusPersistence

	mu     sync.Mutex
	base   store.Store
	caches caches
}

var _ Factory = (*LocalFactory)(nil)

// NewLocalFactory creates a new local storage factory
func NewLocalFactory(cfg *config.Config) (*LocalFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	statusFile := cfg.Sync.GetStatusFile()
	slog.Info("Creating local storage factory",
		"storage_type", cfg.Storage.GetType(false),
		"status_file", statusFile)

	return &LocalFactory{
		config:            cfg,
		statusPersistence: status.NewFileStatusPersistence(statusFile),
	}, nil
}

// CreateStore opens the store on first use and wraps it with the lookup cache.
// The in-memory store is shared between calls so every caller sees the same records.
func (f *LocalFactory) CreateStore(ctx context.Context) (store.Store, error) {
	base, err := f.baseStore(ctx)
	if err != nil {
		return nil, err
	}
	return f.caches.wrap(ctx, &f.config.Cache, base)
}

func (f *LocalFactory) baseStore(ctx context.Context) (store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base != nil {
		return f.base, nil
	}

	switch storageType := f.config.Storage.GetType(false); storageType {
	case config.StorageTypeSQLite:
		path := f.config.Storage.GetSQLitePath()
		slog.Debug("Opening sqlite store", "path", path)
		s, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		f.base = s
	case config.StorageTypeMemory:
		slog.Warn("Using in-memory store, records are lost on exit")
		f.base = memory.New()
	default:
		return nil, fmt.Errorf("storage type %s is not local", storageType)
	}
	return f.base, nil
}

// CreateStateService creates a file-based state service for sync status tracking
func (f *LocalFactory) CreateStateService(_ context.Context) (state.SyncStateService, error) {
	slog.Debug("Creating file-based state service")
	return state.NewStateService(f.config, f.statusPersistence, nil)
}

// Cleanup closes the lookup caches and the store
func (f *LocalFactory) Cleanup() {
	f.caches.closeAll()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return
	}
	if err := f.base.Close(); err != nil {
		slog.Warn("Failed to close store", "error", err)
	}
	f.base = nil
}
