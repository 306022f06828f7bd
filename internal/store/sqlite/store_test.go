package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "nested", "accreg.db"))
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	t.Parallel()

	storetest.RunContractTests(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "accreg.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1", registry.WithRegion("Москва"))))
	require.NoError(t, s.Close())

	s, err = New(ctx, path)
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	inst, err := s.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "Москва", inst.RegionName)
}

func TestStore_UpdatedAtRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	defer func() {
		_ = s.Close()
	}()

	now := time.Date(2025, time.March, 1, 12, 30, 15, 123456789, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1")))
	require.NoError(t, s.AddProgram(ctx, registry.NewTestProgram("P1", "U1")))

	inst, err := s.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, now.Equal(inst.UpdatedAt))

	prog, err := s.GetProgram(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, now.Equal(prog.UpdatedAt))
}

func TestStore_UpdateProgramChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	defer func() {
		_ = s.Close()
	}()

	require.NoError(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1")))

	err := s.UpdateProgram(ctx, registry.NewTestProgram("P1", "U1"))
	require.ErrorIs(t, err, registry.ErrNotFound)

	require.NoError(t, s.AddProgram(ctx, registry.NewTestProgram("P1", "U1")))
	err = s.UpdateProgram(ctx, registry.NewTestProgram("P1", "U404"))
	require.ErrorIs(t, err, registry.ErrOrphanProgram)
}

func TestMapConstraint(t *testing.T) {
	t.Parallel()

	const insertProgram = "INSERT INTO programs (id, institution_id, updated_at) VALUES (?, ?, '')"

	tests := []struct {
		name string
		exec func(ctx context.Context, db *sql.DB) error
		want error
	}{
		{
			name: "duplicate primary key",
			exec: func(ctx context.Context, db *sql.DB) error {
				_, err := db.ExecContext(ctx, "INSERT INTO institutions (id, updated_at) VALUES ('U1', '')")
				return err
			},
			want: registry.ErrAlreadyExists,
		},
		{
			name: "missing institution",
			exec: func(ctx context.Context, db *sql.DB) error {
				_, err := db.ExecContext(ctx, insertProgram, "P9", "U404")
				return err
			},
			want: registry.ErrOrphanProgram,
		},
		{
			name: "other constraints pass through",
			exec: func(ctx context.Context, db *sql.DB) error {
				_, err := db.ExecContext(ctx,
					"UPDATE institutions SET deletion_origin = 'nobody' WHERE id = 'U1'")
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := newTestStore(t)
			defer func() {
				_ = s.Close()
			}()
			require.NoError(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1")))

			err := tt.exec(ctx, s.db)
			require.Error(t, err)

			got := mapConstraint(err)
			if tt.want == nil {
				assert.Equal(t, err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, mapConstraint(nil))
	assert.ErrorIs(t, mapConstraint(assert.AnError), assert.AnError)
}
