// Package store defines the persistent store the reconciler and the
// administrative service write through, together with the lookup-list cache
// the store owns.
//
// Implementations live in subpackages (postgres, sqlite, memory) and are
// selected by the factory package from configuration. All of them share the
// same contract:
//
//   - Add* fails with registry.ErrAlreadyExists when the id is taken, including
//     by a soft-deleted row.
//   - Get* returns soft-deleted rows too; callers decide how to treat them.
//   - Update*, Delete*, SoftDelete* and Restore* fail with registry.ErrNotFound
//     when the id is missing.
//   - DeleteInstitution removes the institution together with its programs and
//     detaches its branches (their head reference becomes nil).
//   - AddProgram and UpdateProgram fail with registry.ErrOrphanProgram when the
//     owning institution is not stored.
package store

import (
	"context"

	"github.com/stacklok/accreg-sync/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/stacklok/accreg-sync/internal/store Store

// Store is the persistent store of institutions and programs
type Store interface {
	InstitutionStore
	ProgramStore

	// Lookup returns the sorted distinct values of a lookup list, ignoring deleted rows
	Lookup(ctx context.Context, lookup registry.Lookup) ([]string, error)

	// Stats counts the stored rows
	Stats(ctx context.Context) (*Stats, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error

	// Close releases the store resources
	Close() error
}

// InstitutionStore persists institutions
type InstitutionStore interface {
	AddInstitution(ctx context.Context, inst *registry.Institution) error
	UpdateInstitution(ctx context.Context, inst *registry.Institution) error
	GetInstitution(ctx context.Context, id string) (*registry.Institution, error)
	ListInstitutionIDs(ctx context.Context) ([]string, error)

	// DeleteInstitution hard deletes the institution and its programs and detaches its branches
	DeleteInstitution(ctx context.Context, id string) error

	// SoftDeleteInstitution marks the institution deleted. With cascade set, its direct
	// branches and the programs of the institution and of those branches are marked too.
	SoftDeleteInstitution(ctx context.Context, id string, origin registry.DeletionOrigin, cascade bool) error

	// RestoreInstitution clears the deleted mark of the institution and of the branches and
	// programs an administrative cascade marked
	RestoreInstitution(ctx context.Context, id string) error

	// HasCustomDependents reports whether custom branches or custom programs reference the institution
	HasCustomDependents(ctx context.Context, id string) (bool, error)
}

// ProgramStore persists programs
type ProgramStore interface {
	AddProgram(ctx context.Context, prog *registry.Program) error
	UpdateProgram(ctx context.Context, prog *registry.Program) error
	GetProgram(ctx context.Context, id string) (*registry.Program, error)
	ListProgramIDs(ctx context.Context) ([]string, error)
	DeleteProgram(ctx context.Context, id string) error
	SoftDeleteProgram(ctx context.Context, id string, origin registry.DeletionOrigin) error
	RestoreProgram(ctx context.Context, id string) error
}

// Stats holds row counts of the store
type Stats struct {
	Institutions        int64 `json:"institutions"`
	DeletedInstitutions int64 `json:"deleted_institutions"`
	CustomInstitutions  int64 `json:"custom_institutions"`
	Programs            int64 `json:"programs"`
	DeletedPrograms     int64 `json:"deleted_programs"`
	CustomPrograms      int64 `json:"custom_programs"`
}
