package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/cache"
	cachemocks "github.com/stacklok/accreg-sync/internal/store/cache/mocks"
	"github.com/stacklok/accreg-sync/internal/store/mocks"
)

func TestCachedStore_LookupHitAndMiss(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	inner.EXPECT().Lookup(gomock.Any(), registry.LookupRegions).Return([]string{"Москва"}, nil).Times(1)

	s := store.NewCachedStore(inner, cache.NewMemory(0))

	for range 3 {
		values, err := s.Lookup(ctx, registry.LookupRegions)
		require.NoError(t, err)
		assert.Equal(t, []string{"Москва"}, values)
	}
}

func TestCachedStore_InvalidatesOnWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		write     func(ctx context.Context, s store.Store) error
		expect    func(inner *mocks.MockStore)
		wantDrops []string
	}{
		{
			name: "add_institution",
			write: func(ctx context.Context, s store.Store) error {
				return s.AddInstitution(ctx, registry.NewTestInstitution("U1"))
			},
			expect: func(inner *mocks.MockStore) {
				inner.EXPECT().AddInstitution(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantDrops: []string{"regions"},
		},
		{
			name: "update_program",
			write: func(ctx context.Context, s store.Store) error {
				return s.UpdateProgram(ctx, registry.NewTestProgram("P1", "U1"))
			},
			expect: func(inner *mocks.MockStore) {
				inner.EXPECT().UpdateProgram(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantDrops: []string{"program-codes", "ugs-codes"},
		},
		{
			name: "cascading_soft_delete",
			write: func(ctx context.Context, s store.Store) error {
				return s.SoftDeleteInstitution(ctx, "U1", registry.OriginAdmin, true)
			},
			expect: func(inner *mocks.MockStore) {
				inner.EXPECT().SoftDeleteInstitution(gomock.Any(), "U1", registry.OriginAdmin, true).Return(nil)
			},
			wantDrops: []string{"program-codes", "regions", "ugs-codes"},
		},
		{
			name: "failed_write_keeps_cache",
			write: func(ctx context.Context, s store.Store) error {
				return s.DeleteProgram(ctx, "P404")
			},
			expect: func(inner *mocks.MockStore) {
				inner.EXPECT().DeleteProgram(gomock.Any(), "P404").Return(registry.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			inner := mocks.NewMockStore(ctrl)
			c := cachemocks.NewMockCache(ctrl)
			tt.expect(inner)

			var dropped []string
			if tt.wantDrops != nil {
				c.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, keys ...string) error {
						dropped = append(dropped, keys...)
						return nil
					})
			}

			s := store.NewCachedStore(inner, c)
			err := tt.write(context.Background(), s)
			if tt.wantDrops == nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.wantDrops, dropped)
		})
	}
}

func TestCachedStore_WriteDuringLoadIsNotMasked(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	loading := make(chan struct{})
	release := make(chan struct{})
	gomock.InOrder(
		inner.EXPECT().Lookup(gomock.Any(), registry.LookupRegions).DoAndReturn(
			func(context.Context, registry.Lookup) ([]string, error) {
				close(loading)
				<-release
				return []string{}, nil
			}),
		inner.EXPECT().Lookup(gomock.Any(), registry.LookupRegions).Return([]string{"Москва"}, nil),
	)
	inner.EXPECT().AddInstitution(gomock.Any(), gomock.Any()).Return(nil)

	s := store.NewCachedStore(inner, cache.NewMemory(0))

	stale := make(chan []string)
	go func() {
		values, err := s.Lookup(ctx, registry.LookupRegions)
		assert.NoError(t, err)
		stale <- values
	}()

	<-loading
	require.NoError(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1")))
	close(release)
	assert.Empty(t, <-stale)

	values, err := s.Lookup(ctx, registry.LookupRegions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Москва"}, values)

	// the fresh list is cached
	values, err = s.Lookup(ctx, registry.LookupRegions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Москва"}, values)
}

func TestCachedStore_CacheFailuresFallBackToStore(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	c := cachemocks.NewMockCache(ctrl)
	ctx := context.Background()

	c.EXPECT().Get(gomock.Any(), "ugs-codes").Return(nil, false, errors.New("connection refused"))
	c.EXPECT().Set(gomock.Any(), "ugs-codes", []string{"09.00.00"}).Return(errors.New("connection refused"))
	inner.EXPECT().Lookup(gomock.Any(), registry.LookupUGSCodes).Return([]string{"09.00.00"}, nil)

	values, err := store.NewCachedStore(inner, c).Lookup(ctx, registry.LookupUGSCodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"09.00.00"}, values)
}

func TestCachedStore_LookupError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	inner.EXPECT().Lookup(gomock.Any(), registry.LookupProgramCodes).Return(nil, assert.AnError)

	_, err := store.NewCachedStore(inner, nil).Lookup(context.Background(), registry.LookupProgramCodes)
	require.ErrorIs(t, err, assert.AnError)
}

func TestCachedStore_CloseClosesBoth(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	c := cachemocks.NewMockCache(ctrl)
	c.EXPECT().Close().Return(nil)
	inner.EXPECT().Close().Return(nil)

	require.NoError(t, store.NewCachedStore(inner, c).Close())
}
