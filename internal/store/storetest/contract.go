// Package storetest holds the behavioural contract every store.Store
// implementation must satisfy. Implementation packages run it from their tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

// Factory returns an empty store. It is called once per contract case.
type Factory func(t *testing.T) store.Store

// RunContractTests runs the store contract against stores built by newStore.
// Cases run sequentially so factories may share one database.
//
//nolint:thelper
func RunContractTests(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		run  func(t *testing.T, s store.Store)
	}{
		{"add_and_get_institution", testAddAndGetInstitution},
		{"add_existing_institution_fails", testAddExistingInstitution},
		{"update_institution", testUpdateInstitution},
		{"missing_institution_is_not_found", testMissingInstitution},
		{"list_ids_include_deleted_rows", testListIDs},
		{"hard_delete_cascades_programs_and_detaches_branches", testDeleteInstitution},
		{"soft_delete_without_cascade", testSoftDeleteWithoutCascade},
		{"soft_delete_with_cascade", testSoftDeleteWithCascade},
		{"restore_admin_cascade", testRestoreAdminCascade},
		{"restore_registry_retirement", testRestoreRegistryRetirement},
		{"custom_dependents", testHasCustomDependents},
		{"program_lifecycle", testProgramLifecycle},
		{"orphan_program_is_rejected", testOrphanProgram},
		{"lookups", testLookups},
		{"stats", testStats},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() {
				_ = s.Close()
			})
			require.NoError(t, s.Ping(context.Background()))
			tc.run(t, s)
		})
	}
}

func mustAddInstitution(t *testing.T, s store.Store, inst *registry.Institution) {
	t.Helper()
	require.NoError(t, s.AddInstitution(context.Background(), inst))
}

func mustAddProgram(t *testing.T, s store.Store, prog *registry.Program) {
	t.Helper()
	require.NoError(t, s.AddProgram(context.Background(), prog))
}

func mustGetInstitution(t *testing.T, s store.Store, id string) *registry.Institution {
	t.Helper()
	inst, err := s.GetInstitution(context.Background(), id)
	require.NoError(t, err)
	return inst
}

func mustGetProgram(t *testing.T, s store.Store, id string) *registry.Program {
	t.Helper()
	prog, err := s.GetProgram(context.Background(), id)
	require.NoError(t, err)
	return prog
}

func testAddAndGetInstitution(t *testing.T, s store.Store) {
	empty := ""
	inst := registry.NewTestInstitution("U1", registry.WithRegion("Москва"))
	inst.ShortName = "МУ"
	inst.HeadEduOrgID = &empty
	mustAddInstitution(t, s, inst)

	got := mustGetInstitution(t, s, "U1")
	assert.Equal(t, inst.FullName, got.FullName)
	assert.Equal(t, "Москва", got.RegionName)
	assert.Nil(t, got.HeadEduOrgID, "empty parent is stored as a head organization")
	assert.Equal(t, registry.SearchName(inst.FullName, "МУ"), got.NameSearch)
	assert.False(t, got.Custom)
	assert.False(t, got.Deleted)
	assert.Equal(t, registry.OriginNone, got.DeletionOrigin)
	assert.False(t, got.UpdatedAt.IsZero())

	got.FullName = "changed"
	again := mustGetInstitution(t, s, "U1")
	assert.NotEqual(t, "changed", again.FullName, "returned rows are copies")
}

func testAddExistingInstitution(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U2", registry.OriginAdmin, false))

	require.ErrorIs(t, s.AddInstitution(ctx, registry.NewTestInstitution("U1")), registry.ErrAlreadyExists)
	require.ErrorIs(t, s.AddInstitution(ctx, registry.NewTestInstitution("U2")), registry.ErrAlreadyExists,
		"soft deleted rows still own their id")
}

func testUpdateInstitution(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))

	updated := registry.NewTestInstitution("U1",
		registry.WithFullName("Обновлённый университет высшего образования"),
		registry.WithHead("U0"),
	)
	require.NoError(t, s.UpdateInstitution(ctx, updated))

	got := mustGetInstitution(t, s, "U1")
	assert.Equal(t, "Обновлённый университет высшего образования", got.FullName)
	require.NotNil(t, got.HeadEduOrgID)
	assert.Equal(t, "U0", *got.HeadEduOrgID, "branches may reference heads that are not stored")
	assert.Contains(t, got.NameSearch, "обновлённый")
}

func testMissingInstitution(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetInstitution(ctx, "missing")
	require.ErrorIs(t, err, registry.ErrNotFound)
	require.ErrorIs(t, s.UpdateInstitution(ctx, registry.NewTestInstitution("missing")), registry.ErrNotFound)
	require.ErrorIs(t, s.DeleteInstitution(ctx, "missing"), registry.ErrNotFound)
	require.ErrorIs(t, s.SoftDeleteInstitution(ctx, "missing", registry.OriginAdmin, true), registry.ErrNotFound)
	require.ErrorIs(t, s.RestoreInstitution(ctx, "missing"), registry.ErrNotFound)
}

func testListIDs(t *testing.T, s store.Store) {
	ctx := context.Background()

	ids, err := s.ListInstitutionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("C1", registry.WithCustom()))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U2", registry.OriginAdmin, false))
	mustAddProgram(t, s, registry.NewTestProgram("P2", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))

	ids, err = s.ListInstitutionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "U1", "U2"}, ids)

	ids, err = s.ListProgramIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, ids)
}

func testDeleteInstitution(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("PB", "B1"))

	require.NoError(t, s.DeleteInstitution(ctx, "U1"))

	_, err := s.GetInstitution(ctx, "U1")
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, err = s.GetProgram(ctx, "P1")
	require.ErrorIs(t, err, registry.ErrNotFound)

	branch := mustGetInstitution(t, s, "B1")
	assert.Nil(t, branch.HeadEduOrgID)
	assert.False(t, branch.Deleted)
	assert.False(t, mustGetProgram(t, s, "PB").Deleted)
}

func testSoftDeleteWithoutCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))

	require.NoError(t, s.SoftDeleteInstitution(ctx, "U1", registry.OriginRegistry, false))

	head := mustGetInstitution(t, s, "U1")
	assert.True(t, head.Deleted)
	assert.Equal(t, registry.OriginRegistry, head.DeletionOrigin)
	assert.False(t, mustGetInstitution(t, s, "B1").Deleted)
	assert.False(t, mustGetProgram(t, s, "P1").Deleted)
}

func testSoftDeleteWithCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	mustAddInstitution(t, s, registry.NewTestInstitution("BB", registry.WithHead("B1")))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("PB", "B1"))
	mustAddProgram(t, s, registry.NewTestProgram("PBB", "BB"))
	mustAddProgram(t, s, registry.NewTestProgram("P2", "U2"))

	require.NoError(t, s.SoftDeleteInstitution(ctx, "U1", registry.OriginAdmin, true))

	for _, id := range []string{"U1", "B1"} {
		inst := mustGetInstitution(t, s, id)
		assert.True(t, inst.Deleted, id)
		assert.Equal(t, registry.OriginAdmin, inst.DeletionOrigin, id)
	}
	for _, id := range []string{"P1", "PB"} {
		prog := mustGetProgram(t, s, id)
		assert.True(t, prog.Deleted, id)
		assert.Equal(t, registry.OriginAdmin, prog.DeletionOrigin, id)
	}
	assert.False(t, mustGetInstitution(t, s, "BB").Deleted, "only direct branches cascade")
	assert.False(t, mustGetProgram(t, s, "PBB").Deleted)
	assert.False(t, mustGetInstitution(t, s, "U2").Deleted)
	assert.False(t, mustGetProgram(t, s, "P2").Deleted)
}

func testRestoreAdminCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	mustAddInstitution(t, s, registry.NewTestInstitution("B2", registry.WithHead("U1")))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("P2", "U1"))

	require.NoError(t, s.SoftDeleteInstitution(ctx, "B2", registry.OriginRegistry, false))
	require.NoError(t, s.SoftDeleteProgram(ctx, "P2", registry.OriginRegistry))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U1", registry.OriginAdmin, true))

	// the cascade overwrote the registry marks of direct dependents
	assert.Equal(t, registry.OriginAdmin, mustGetInstitution(t, s, "B2").DeletionOrigin)

	require.NoError(t, s.SoftDeleteInstitution(ctx, "B2", registry.OriginRegistry, false))
	require.NoError(t, s.SoftDeleteProgram(ctx, "P2", registry.OriginRegistry))
	require.NoError(t, s.RestoreInstitution(ctx, "U1"))

	head := mustGetInstitution(t, s, "U1")
	assert.False(t, head.Deleted)
	assert.Equal(t, registry.OriginNone, head.DeletionOrigin)
	assert.False(t, mustGetInstitution(t, s, "B1").Deleted)
	assert.False(t, mustGetProgram(t, s, "P1").Deleted)
	assert.True(t, mustGetInstitution(t, s, "B2").Deleted, "registry retirements are not restored by the cascade")
	assert.True(t, mustGetProgram(t, s, "P2").Deleted)
}

func testRestoreRegistryRetirement(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "B1", registry.OriginAdmin, false))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U1", registry.OriginRegistry, false))

	require.NoError(t, s.RestoreInstitution(ctx, "U1"))

	assert.False(t, mustGetInstitution(t, s, "U1").Deleted)
	assert.True(t, mustGetInstitution(t, s, "B1").Deleted, "only admin restores cascade")
}

func testHasCustomDependents(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U3"))
	mustAddInstitution(t, s, registry.NewTestInstitution("B1", registry.WithHead("U1")))
	mustAddInstitution(t, s, registry.NewTestInstitution("C1", registry.WithHead("U2"), registry.WithCustom()))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("C2", "U3", registry.WithCustomProgram()))

	for id, want := range map[string]bool{"U1": false, "U2": true, "U3": true, "missing": false} {
		got, err := s.HasCustomDependents(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func testProgramLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1", registry.WithCodes("09.03.04", "09.00.00")))

	got := mustGetProgram(t, s, "P1")
	assert.Equal(t, "U1", got.InstitutionID)
	assert.Equal(t, "09.03.04", got.ProgramCode)
	assert.Equal(t, "09.00.00", got.UGSCode)

	require.ErrorIs(t, s.AddProgram(ctx, registry.NewTestProgram("P1", "U1")), registry.ErrAlreadyExists)

	moved := registry.NewTestProgram("P1", "U2", registry.WithCodes("01.03.01", "01.00.00"))
	require.NoError(t, s.UpdateProgram(ctx, moved))
	got = mustGetProgram(t, s, "P1")
	assert.Equal(t, "U2", got.InstitutionID)
	assert.Equal(t, "01.03.01", got.ProgramCode)

	require.NoError(t, s.SoftDeleteProgram(ctx, "P1", registry.OriginAdmin))
	got = mustGetProgram(t, s, "P1")
	assert.True(t, got.Deleted)
	assert.Equal(t, registry.OriginAdmin, got.DeletionOrigin)

	require.NoError(t, s.RestoreProgram(ctx, "P1"))
	assert.False(t, mustGetProgram(t, s, "P1").Deleted)

	require.NoError(t, s.DeleteProgram(ctx, "P1"))
	_, err := s.GetProgram(ctx, "P1")
	require.ErrorIs(t, err, registry.ErrNotFound)

	require.ErrorIs(t, s.DeleteProgram(ctx, "P1"), registry.ErrNotFound)
	require.ErrorIs(t, s.SoftDeleteProgram(ctx, "P1", registry.OriginAdmin), registry.ErrNotFound)
	require.ErrorIs(t, s.RestoreProgram(ctx, "P1"), registry.ErrNotFound)
	require.ErrorIs(t, s.UpdateProgram(ctx, moved), registry.ErrNotFound)
}

func testOrphanProgram(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.AddProgram(ctx, registry.NewTestProgram("P1", "nobody"))
	require.ErrorIs(t, err, registry.ErrOrphanProgram)
	assert.True(t, registry.IsDomainRejection(err))

	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	require.ErrorIs(t, s.UpdateProgram(ctx, registry.NewTestProgram("P1", "nobody")), registry.ErrOrphanProgram)
}

func testLookups(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1", registry.WithRegion("Тверь")))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2", registry.WithRegion("Москва")))
	mustAddInstitution(t, s, registry.NewTestInstitution("U3", registry.WithRegion("Москва")))
	mustAddInstitution(t, s, registry.NewTestInstitution("U4", registry.WithRegion("Омск")))
	mustAddInstitution(t, s, registry.NewTestInstitution("U5", registry.WithRegion("")))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U4", registry.OriginAdmin, false))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1", registry.WithCodes("09.03.04", "09.00.00")))
	mustAddProgram(t, s, registry.NewTestProgram("P2", "U1", registry.WithCodes("01.03.01", "01.00.00")))
	mustAddProgram(t, s, registry.NewTestProgram("P3", "U1", registry.WithCodes("09.03.01", "09.00.00")))
	mustAddProgram(t, s, registry.NewTestProgram("P4", "U1", registry.WithCodes("44.03.01", "44.00.00")))
	require.NoError(t, s.SoftDeleteProgram(ctx, "P4", registry.OriginAdmin))

	regions, err := s.Lookup(ctx, registry.LookupRegions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Москва", "Тверь"}, regions)

	ugs, err := s.Lookup(ctx, registry.LookupUGSCodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"01.00.00", "09.00.00"}, ugs)

	codes, err := s.Lookup(ctx, registry.LookupProgramCodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"01.03.01", "09.03.01", "09.03.04"}, codes)

	_, err = s.Lookup(ctx, registry.Lookup("unknown"))
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAddInstitution(t, s, registry.NewTestInstitution("U1"))
	mustAddInstitution(t, s, registry.NewTestInstitution("U2"))
	mustAddInstitution(t, s, registry.NewTestInstitution("C1", registry.WithCustom()))
	mustAddProgram(t, s, registry.NewTestProgram("P1", "U1"))
	mustAddProgram(t, s, registry.NewTestProgram("P2", "U2"))
	mustAddProgram(t, s, registry.NewTestProgram("C2", "C1", registry.WithCustomProgram()))
	require.NoError(t, s.SoftDeleteInstitution(ctx, "U2", registry.OriginAdmin, true))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &store.Stats{
		Institutions:        2,
		DeletedInstitutions: 1,
		CustomInstitutions:  1,
		Programs:            2,
		DeletedPrograms:     1,
		CustomPrograms:      1,
	}, stats)
}
