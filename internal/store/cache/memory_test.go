package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok, err := m.Get(ctx, "regions")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "regions", []string{"Москва", "Тверь"}))
	values, ok, err := m.Get(ctx, "regions")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Москва", "Тверь"}, values)

	// callers get their own copy
	values[0] = "changed"
	again, _, _ := m.Get(ctx, "regions")
	assert.Equal(t, "Москва", again[0])
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ttl     time.Duration
		advance time.Duration
		wantHit bool
	}{
		{name: "fresh", ttl: time.Minute, advance: 59 * time.Second, wantHit: true},
		{name: "expired_at_ttl", ttl: time.Minute, advance: time.Minute, wantHit: false},
		{name: "expired_after_ttl", ttl: time.Minute, advance: time.Hour, wantHit: false},
		{name: "no_ttl", ttl: 0, advance: 24 * time.Hour, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			clk := clocktesting.NewFakePassiveClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
			m := NewMemoryWithClock(tt.ttl, clk)

			require.NoError(t, m.Set(ctx, "k", []string{"v"}))
			clk.SetTime(clk.Now().Add(tt.advance))

			_, ok, err := m.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, tt.wantHit, ok)
		})
	}
}

func TestMemory_DeleteAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(0)

	require.NoError(t, m.Set(ctx, "a", []string{"1"}))
	require.NoError(t, m.Set(ctx, "b", []string{"2"}))
	require.NoError(t, m.Delete(ctx, "a", "missing"))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, m.Close())
	_, _, err := m.Get(ctx, "b")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, m.Set(ctx, "b", nil), ErrClosed)
	require.ErrorIs(t, m.Delete(ctx, "b"), ErrClosed)
}

func TestNop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c Cache = Nop{}
	require.NoError(t, c.Set(ctx, "k", []string{"v"}))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Close())
}

func TestNewRedis_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(context.Background(), "http://not-redis", time.Minute)
	require.ErrorContains(t, err, "parse redis URL")
}
