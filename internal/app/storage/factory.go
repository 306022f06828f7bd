// Package storage creates the storage-dependent components as a family, so the
// record store and the sync state service always share a backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/cache"
	"github.com/stacklok/accreg-sync/internal/sync/state"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
//
// The factory encapsulates the creation of:
// - Store: the institution and program records, wrapped with the lookup cache
// - SyncStateService: the durable sync status read by the scheduler
//
// It also manages the lifecycle of shared storage resources such as the connection pool.
type Factory interface {
	// CreateStore creates the record store. Every call returns a store over the
	// same underlying data. Callers must not Close it; Cleanup does.
	CreateStore(ctx context.Context) (store.Store, error)

	// CreateStateService creates the state service for sync status tracking
	CreateStateService(ctx context.Context) (state.SyncStateService, error)

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type.
// Returns a DatabaseFactory for postgres and a LocalFactory for sqlite and memory.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch storageType := cfg.Storage.GetType(cfg.Database != nil); storageType {
	case config.StorageTypePostgres:
		return NewDatabaseFactory(ctx, cfg, opts...)
	case config.StorageTypeSQLite, config.StorageTypeMemory:
		return NewLocalFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// newCache creates the lookup cache selected by cfg
func newCache(ctx context.Context, cfg *config.CacheConfig) (cache.Cache, error) {
	switch cacheType := cfg.GetType(); cacheType {
	case config.CacheTypeNone:
		slog.Debug("Lookup cache disabled")
		return cache.Nop{}, nil
	case config.CacheTypeMemory:
		slog.Debug("Using in-memory lookup cache", "ttl", cfg.GetTTL())
		return cache.NewMemory(cfg.GetTTL()), nil
	case config.CacheTypeRedis:
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, fmt.Errorf("redis url is required for redis cache")
		}
		c, err := cache.NewRedis(ctx, cfg.Redis.URL, cfg.GetTTL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect lookup cache: %w", err)
		}
		slog.Info("Using Redis lookup cache", "ttl", cfg.GetTTL())
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cacheType)
	}
}

// caches tracks the lookup caches handed out by a factory so Cleanup can close
// them without closing the shared store underneath
type caches struct {
	mu    sync.Mutex
	items []cache.Cache
}

// wrap wraps s with a new lookup cache selected by cfg
func (c *caches) wrap(ctx context.Context, cfg *config.CacheConfig, s store.Store) (store.Store, error) {
	lookupCache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items = append(c.items, lookupCache)
	c.mu.Unlock()

	return store.NewCachedStore(s, lookupCache), nil
}

func (c *caches) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if err := item.Close(); err != nil {
			slog.Warn("Failed to close lookup cache", "error", err)
		}
	}
	c.items = nil
}
