// Package cache holds the lookup-list caches the store decorator reads through.
package cache

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed cache
var ErrClosed = errors.New("cache is closed")

//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks github.com/stacklok/accreg-sync/internal/store/cache Cache

// Cache stores string lists by key. A miss is reported with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (values []string, ok bool, err error)
	Set(ctx context.Context, key string, values []string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Nop never holds anything
type Nop struct{}

var _ Cache = Nop{}

// Get always misses
func (Nop) Get(context.Context, string) ([]string, bool, error) { return nil, false, nil }

// Set discards the values
func (Nop) Set(context.Context, string, []string) error { return nil }

// Delete does nothing
func (Nop) Delete(context.Context, ...string) error { return nil }

// Close does nothing
func (Nop) Close() error { return nil }
