package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store/cache"
)

var (
	institutionLookups = []string{string(registry.LookupRegions)}
	programLookups     = []string{string(registry.LookupUGSCodes), string(registry.LookupProgramCodes)}
	allLookups         = slices.Concat(institutionLookups, programLookups)
)

// CachedStore serves lookup lists from a cache and drops the cached lists whenever a
// write touches the table they are derived from. Every other call goes to the wrapped store.
type CachedStore struct {
	Store
	cache  cache.Cache
	loads  singleflight.Group
	logger *slog.Logger

	// generation moves on every invalidation; a load that spans one is not cached
	generation atomic.Uint64
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps s with the lookup cache c. The returned store owns c and closes it.
func NewCachedStore(s Store, c cache.Cache) *CachedStore {
	if c == nil {
		c = cache.Nop{}
	}
	return &CachedStore{
		Store:  s,
		cache:  c,
		logger: slog.Default().With("component", "lookup-cache"),
	}
}

// Lookup implements Store
func (c *CachedStore) Lookup(ctx context.Context, lookup registry.Lookup) ([]string, error) {
	key := string(lookup)

	values, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed, loading from store", "lookup", key, "error", err)
	} else if ok {
		return values, nil
	}

	// concurrent misses share a single store query
	v, err, _ := c.loads.Do(key, func() (any, error) {
		gen := c.generation.Load()
		loaded, err := c.Store.Lookup(ctx, lookup)
		if err != nil {
			return nil, err
		}
		c.cacheLoaded(ctx, key, loaded, gen)
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}
	return slices.Clone(v.([]string)), nil
}

// cacheLoaded caches a list loaded at generation gen unless a write has invalidated it since
func (c *CachedStore) cacheLoaded(ctx context.Context, key string, values []string, gen uint64) {
	if c.generation.Load() != gen {
		return
	}
	if err := c.cache.Set(ctx, key, values); err != nil {
		c.logger.Warn("Cache write failed", "lookup", key, "error", err)
		return
	}
	// an invalidation between the check and the write may have missed this entry
	if c.generation.Load() != gen {
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.Warn("Cache invalidation failed", "lookup", key, "error", err)
		}
	}
}

// Invalidate drops the cached lookup lists derived from kind, or all of them when kind is empty
func (c *CachedStore) Invalidate(ctx context.Context, kind registry.Kind) {
	var keys []string
	switch kind {
	case registry.KindInstitution:
		keys = institutionLookups
	case registry.KindProgram:
		keys = programLookups
	default:
		keys = allLookups
	}
	c.generation.Add(1)
	for _, key := range keys {
		c.loads.Forget(key)
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Cache invalidation failed", "kind", kind, "error", err)
	}
}

func (c *CachedStore) after(ctx context.Context, kind registry.Kind, err error) error {
	if err == nil {
		c.Invalidate(ctx, kind)
	}
	return err
}

// AddInstitution implements Store
func (c *CachedStore) AddInstitution(ctx context.Context, inst *registry.Institution) error {
	return c.after(ctx, registry.KindInstitution, c.Store.AddInstitution(ctx, inst))
}

// UpdateInstitution implements Store
func (c *CachedStore) UpdateInstitution(ctx context.Context, inst *registry.Institution) error {
	return c.after(ctx, registry.KindInstitution, c.Store.UpdateInstitution(ctx, inst))
}

// DeleteInstitution implements Store. Its programs go too, so every list is dropped.
func (c *CachedStore) DeleteInstitution(ctx context.Context, id string) error {
	return c.after(ctx, "", c.Store.DeleteInstitution(ctx, id))
}

// SoftDeleteInstitution implements Store
func (c *CachedStore) SoftDeleteInstitution(
	ctx context.Context, id string, origin registry.DeletionOrigin, cascade bool,
) error {
	return c.after(ctx, "", c.Store.SoftDeleteInstitution(ctx, id, origin, cascade))
}

// RestoreInstitution implements Store
func (c *CachedStore) RestoreInstitution(ctx context.Context, id string) error {
	return c.after(ctx, "", c.Store.RestoreInstitution(ctx, id))
}

// AddProgram implements Store
func (c *CachedStore) AddProgram(ctx context.Context, prog *registry.Program) error {
	return c.after(ctx, registry.KindProgram, c.Store.AddProgram(ctx, prog))
}

// UpdateProgram implements Store
func (c *CachedStore) UpdateProgram(ctx context.Context, prog *registry.Program) error {
	return c.after(ctx, registry.KindProgram, c.Store.UpdateProgram(ctx, prog))
}

// DeleteProgram implements Store
func (c *CachedStore) DeleteProgram(ctx context.Context, id string) error {
	return c.after(ctx, registry.KindProgram, c.Store.DeleteProgram(ctx, id))
}

// SoftDeleteProgram implements Store
func (c *CachedStore) SoftDeleteProgram(ctx context.Context, id string, origin registry.DeletionOrigin) error {
	return c.after(ctx, registry.KindProgram, c.Store.SoftDeleteProgram(ctx, id, origin))
}

// RestoreProgram implements Store
func (c *CachedStore) RestoreProgram(ctx context.Context, id string) error {
	return c.after(ctx, registry.KindProgram, c.Store.RestoreProgram(ctx, id))
}

// Close closes the cache and the wrapped store
func (c *CachedStore) Close() error {
	if err := c.cache.Close(); err != nil {
		c.logger.Warn("Failed to close cache", "error", err)
	}
	return c.Store.Close()
}
