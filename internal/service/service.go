// Package service implements the administrative operations on stored
// institutions and programs, together with the deletion procedure the
// reconciler shares with them.
package service

import (
	"context"
	"errors"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

// ErrUnknownKind is returned when an operation names a kind other than institution or program
var ErrUnknownKind = errors.New("unknown record kind")

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go RegistryService

// RegistryService defines the operations on stored records
type RegistryService interface {
	// CheckReadiness checks the store is reachable
	CheckReadiness(ctx context.Context) error

	// CreateInstitution stores a custom institution under a fresh id
	CreateInstitution(ctx context.Context, inst *registry.Institution) (*registry.Institution, error)

	// CreateProgram stores a custom program under a fresh id
	CreateProgram(ctx context.Context, prog *registry.Program) (*registry.Program, error)

	// UpdateInstitution replaces a custom institution
	UpdateInstitution(ctx context.Context, inst *registry.Institution) (*registry.Institution, error)

	// UpdateProgram replaces a custom program
	UpdateProgram(ctx context.Context, prog *registry.Program) (*registry.Program, error)

	// GetInstitution returns a live institution
	GetInstitution(ctx context.Context, id string) (*registry.Institution, error)

	// GetProgram returns a live program
	GetProgram(ctx context.Context, id string) (*registry.Program, error)

	// Delete removes or retires a record. fromRegistry is set by the reconciler and
	// unset for administrative calls.
	Delete(ctx context.Context, kind registry.Kind, id string, fromRegistry bool) (Outcome, error)

	// Restore clears the deleted mark of a record
	Restore(ctx context.Context, kind registry.Kind, id string) error

	// Lookup returns a lookup list
	Lookup(ctx context.Context, lookup registry.Lookup) ([]string, error)

	// Stats counts the stored rows
	Stats(ctx context.Context) (*store.Stats, error)
}

// Outcome tells what Delete did
type Outcome string

const (
	// OutcomeNoop means the record was left alone
	OutcomeNoop Outcome = "noop"

	// OutcomeHardDeleted means the row is gone
	OutcomeHardDeleted Outcome = "hard_deleted"

	// OutcomeSoftDeleted means the row was marked deleted by an administrator
	OutcomeSoftDeleted Outcome = "soft_deleted"

	// OutcomeRetired means a registry delete was downgraded to a soft delete
	// because custom records still depend on the row
	OutcomeRetired Outcome = "retired"
)

// Removed reports whether the record is no longer live after the outcome
func (o Outcome) Removed() bool {
	return o != OutcomeNoop
}
