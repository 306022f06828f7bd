package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

type memoryEntry struct {
	values  []string
	expires time.Time
}

// Memory keeps entries in process memory until their TTL elapses
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   clock.PassiveClock
	closed  bool
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a memory cache. A non-positive ttl keeps entries until they are deleted.
func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, clock.RealClock{})
}

// NewMemoryWithClock creates a memory cache reading time from clk
func NewMemoryWithClock(ttl time.Duration, clk clock.PassiveClock) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clk,
	}
}

// Get implements Cache
func (m *Memory) Get(_ context.Context, key string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.values), true, nil
}

// Set implements Cache
func (m *Memory) Set(_ context.Context, key string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	e := memoryEntry{values: slices.Clone(values)}
	if m.ttl > 0 {
		e.expires = m.clock.Now().Add(m.ttl)
	}
	m.entries[key] = e
	return nil
}

// Delete implements Cache
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Close drops every entry; later calls fail with ErrClosed
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.closed = true
	return nil
}
