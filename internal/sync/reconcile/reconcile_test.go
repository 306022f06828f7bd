package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/snapshot"
	"github.com/stacklok/accreg-sync/internal/store/memory"
	"github.com/stacklok/accreg-sync/internal/store/mocks"
)

type fixture struct {
	store *memory.Store
	svc   service.RegistryService
	rec   Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	svc, err := service.NewRegistryService(st)
	require.NoError(t, err)
	return &fixture{store: st, svc: svc, rec: New(st, svc)}
}

func (f *fixture) seed(t *testing.T, records ...any) {
	t.Helper()
	ctx := context.Background()
	for _, rec := range records {
		switch r := rec.(type) {
		case *registry.Institution:
			require.NoError(t, f.store.AddInstitution(ctx, r))
		case *registry.Program:
			require.NoError(t, f.store.AddProgram(ctx, r))
		}
	}
}

func snap(institutions []*registry.Institution, programs ...*registry.Program) *snapshot.Snapshot {
	return &snapshot.Snapshot{Institutions: institutions, Programs: programs}
}

func TestReconcile_AddsHigherEducationAndRejectsOthers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	res, err := f.rec.Reconcile(ctx, snap([]*registry.Institution{
		registry.NewTestInstitution("U1"),
		registry.NewTestInstitution("U2", registry.WithFullName("Колледж высшего образования")),
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"U1"}, res.KeptInstitutionIDs)
	assert.Equal(t, 1, res.Institutions.Added)
	assert.Equal(t, 1, res.Institutions.Rejected)

	u1, err := f.store.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, u1.Custom)
	assert.False(t, u1.Deleted)

	_, err = f.store.GetInstitution(ctx, "U2")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestReconcile_RemovesInstitutionsLeavingRegistry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rec.Reconcile(ctx, snap(
		[]*registry.Institution{registry.NewTestInstitution("U1"), registry.NewTestInstitution("U3")},
		registry.NewTestProgram("P1", "U1"),
		registry.NewTestProgram("P3", "U3"),
	))
	require.NoError(t, err)

	res, err := f.rec.Reconcile(ctx, snap(
		[]*registry.Institution{registry.NewTestInstitution("U3")},
		registry.NewTestProgram("P3", "U3"),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Institutions.Deleted)
	assert.Equal(t, 1, res.Programs.Deleted)

	_, err = f.svc.GetInstitution(ctx, "U1")
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, err = f.svc.GetProgram(ctx, "P1")
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = f.svc.GetProgram(ctx, "P3")
	require.NoError(t, err)
}

func TestReconcile_KeptRowsAreLiveRegistryRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		registry.NewTestInstitution("R1", registry.WithDeleted(registry.OriginRegistry)),
		registry.NewTestInstitution("OLD"),
	)

	res, err := f.rec.Reconcile(ctx, snap(
		[]*registry.Institution{
			registry.NewTestInstitution("U1"),
			registry.NewTestInstitution("R1", registry.WithRegion("Казань")),
			registry.NewTestInstitution("B1", registry.WithHead("U1")),
		},
		registry.NewTestProgram("P1", "U1"),
		registry.NewTestProgram("P2", "B1"),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "R1", "U1"}, res.KeptInstitutionIDs)
	assert.Equal(t, []string{"P1", "P2"}, res.KeptProgramIDs)
	assert.Equal(t, 1, res.Institutions.Deleted)

	for _, id := range res.KeptInstitutionIDs {
		inst, err := f.store.GetInstitution(ctx, id)
		require.NoError(t, err, id)
		assert.False(t, inst.Deleted, id)
		assert.False(t, inst.Custom, id)
	}
	for _, id := range res.KeptProgramIDs {
		prog, err := f.store.GetProgram(ctx, id)
		require.NoError(t, err, id)
		assert.False(t, prog.Deleted, id)
		assert.False(t, prog.Custom, id)
	}

	r1, err := f.store.GetInstitution(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "Казань", r1.RegionName, "retired rows are resurrected by a later snapshot")
	assert.Equal(t, registry.OriginNone, r1.DeletionOrigin)
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	s := snap(
		[]*registry.Institution{registry.NewTestInstitution("U1"), registry.NewTestInstitution("U2")},
		registry.NewTestProgram("P1", "U1"),
		registry.NewTestProgram("P2", "U2"),
	)

	first, err := f.rec.Reconcile(ctx, s)
	require.NoError(t, err)
	statsFirst, err := f.store.Stats(ctx)
	require.NoError(t, err)

	second, err := f.rec.Reconcile(ctx, s)
	require.NoError(t, err)
	statsSecond, err := f.store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.KeptInstitutionIDs, second.KeptInstitutionIDs)
	assert.Equal(t, first.KeptProgramIDs, second.KeptProgramIDs)
	assert.Equal(t, statsFirst, statsSecond)
	assert.Equal(t, 2, second.Institutions.Updated)
	assert.Zero(t, second.Institutions.Added)
	assert.Zero(t, second.Institutions.Deleted+second.Programs.Deleted)
}

func TestReconcile_CustomRowsAreNeverTouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	custom := registry.NewTestInstitution("C1", registry.WithCustom(), registry.WithRegion("Тверь"))
	f.seed(t,
		custom,
		registry.NewTestInstitution("C2", registry.WithCustom()),
		registry.NewTestProgram("CP1", "C2", registry.WithCustomProgram()),
	)

	res, err := f.rec.Reconcile(ctx, snap(
		[]*registry.Institution{registry.NewTestInstitution("C1", registry.WithRegion("Москва"))},
		registry.NewTestProgram("CP1", "C2"),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Institutions.Conflicts)
	assert.Equal(t, 1, res.Programs.Conflicts)
	assert.Empty(t, res.KeptInstitutionIDs)

	c1, err := f.store.GetInstitution(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Тверь", c1.RegionName)
	assert.True(t, c1.Custom)

	c2, err := f.store.GetInstitution(ctx, "C2")
	require.NoError(t, err)
	assert.False(t, c2.Deleted, "custom rows absent from the snapshot stay")
	_, err = f.store.GetProgram(ctx, "CP1")
	require.NoError(t, err)
}

func TestReconcile_AdminDeletedRowsAreRetained(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		registry.NewTestInstitution("U1", registry.WithDeleted(registry.OriginAdmin)),
		registry.NewTestProgram("P1", "U1", registry.WithDeletedProgram(registry.OriginAdmin)),
	)

	res, err := f.rec.Reconcile(ctx, snap(
		[]*registry.Institution{registry.NewTestInstitution("U1", registry.WithRegion("Казань"))},
		registry.NewTestProgram("P1", "U1"),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Institutions.Retained)
	assert.Equal(t, 1, res.Programs.Retained)

	u1, err := f.store.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, u1.Deleted)
	assert.Equal(t, registry.OriginAdmin, u1.DeletionOrigin)
	assert.Equal(t, "Москва", u1.RegionName)
}

func TestReconcile_RetiresInstitutionWithCustomPrograms(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		registry.NewTestInstitution("U1"),
		registry.NewTestProgram("P1", "U1"),
		registry.NewTestProgram("CP1", "U1", registry.WithCustomProgram()),
	)

	res, err := f.rec.Reconcile(ctx, snap(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Institutions.Deleted)
	assert.Equal(t, 1, res.Programs.Deleted)

	u1, err := f.store.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, u1.Deleted)
	assert.Equal(t, registry.OriginRegistry, u1.DeletionOrigin)

	cp1, err := f.store.GetProgram(ctx, "CP1")
	require.NoError(t, err)
	assert.False(t, cp1.Deleted)

	again, err := f.rec.Reconcile(ctx, snap(nil))
	require.NoError(t, err)
	assert.Zero(t, again.Institutions.Deleted, "a retired institution is counted once")
	assert.Zero(t, again.Programs.Deleted)

	u1, err = f.store.GetInstitution(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, u1.Deleted)
	assert.Equal(t, registry.OriginRegistry, u1.DeletionOrigin)
}

func TestReconcile_RejectsOrphanAndNonHigherPrograms(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.rec.Reconcile(context.Background(), snap(
		[]*registry.Institution{registry.NewTestInstitution("U1")},
		registry.NewTestProgram("P1", "U1"),
		registry.NewTestProgram("P2", "U404"),
		registry.NewTestProgram("P3", "U1", registry.WithLevel("Среднее профессиональное образование")),
		nil,
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, res.KeptProgramIDs)
	assert.Equal(t, 3, res.Programs.Rejected)
}

func TestReconcile_StoreFailureAbortsPass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(st *mocks.MockStore)
	}{
		{
			name: "add fails",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().AddInstitution(gomock.Any(), gomock.Any()).Return(assert.AnError)
			},
		},
		{
			name: "update fails",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().AddInstitution(gomock.Any(), gomock.Any()).Return(registry.ErrAlreadyExists)
				st.EXPECT().GetInstitution(gomock.Any(), "U1").Return(registry.NewTestInstitution("U1"), nil)
				st.EXPECT().UpdateInstitution(gomock.Any(), gomock.Any()).Return(assert.AnError)
			},
		},
		{
			name: "listing fails",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().AddInstitution(gomock.Any(), gomock.Any()).Return(nil)
				st.EXPECT().ListInstitutionIDs(gomock.Any()).Return(nil, assert.AnError)
				st.EXPECT().ListProgramIDs(gomock.Any()).Return(nil, nil).AnyTimes()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			st := mocks.NewMockStore(ctrl)
			tt.setup(st)

			_, err := New(st, nil).Reconcile(context.Background(), snap(
				[]*registry.Institution{registry.NewTestInstitution("U1")},
			))
			require.ErrorIs(t, err, ErrPersistence)
		})
	}
}

type vanishingDeleter struct{}

func (vanishingDeleter) Delete(context.Context, registry.Kind, string, bool) (service.Outcome, error) {
	return service.OutcomeNoop, registry.ErrNotFound
}

func TestReconcile_IgnoresRowsVanishingDuringDeletion(t *testing.T) {
	t.Parallel()

	st := memory.New()
	require.NoError(t, st.AddInstitution(context.Background(), registry.NewTestInstitution("GONE")))

	res, err := New(st, vanishingDeleter{}).Reconcile(context.Background(), snap(nil))
	require.NoError(t, err)
	assert.Zero(t, res.Institutions.Deleted)
}
