package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stacklok/accreg-sync/internal/otel"
	"github.com/stacklok/accreg-sync/internal/registry"
)

// Delete implements RegistryService.
//
//	custom  fromRegistry  action
//	yes     yes           none
//	yes     no            hard delete
//	no      yes           hard delete, or retirement while custom records depend on it
//	                      (a deleted row with custom dependents is left alone)
//	no      no            soft delete with cascade
func (s *registryService) Delete(
	ctx context.Context, kind registry.Kind, id string, fromRegistry bool,
) (outcome Outcome, err error) {
	ctx, span := s.startSpan(ctx, "service.Delete", kind, id)
	span.SetAttributes(otel.AttrDeletionPath.Bool(fromRegistry))
	defer func() {
		span.SetAttributes(attribute.String("deletion.outcome", string(outcome)))
		otel.EndSpan(span, &err)
	}()

	switch kind {
	case registry.KindInstitution:
		outcome, err = s.deleteInstitution(ctx, id, fromRegistry)
	case registry.KindProgram:
		outcome, err = s.deleteProgram(ctx, id, fromRegistry)
	default:
		return OutcomeNoop, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return OutcomeNoop, err
	}

	if !fromRegistry {
		slog.InfoContext(ctx, "Deleted record", "kind", kind, "id", id, "outcome", outcome)
	}
	return outcome, nil
}

func (s *registryService) deleteInstitution(ctx context.Context, id string, fromRegistry bool) (Outcome, error) {
	inst, err := s.store.GetInstitution(ctx, id)
	if err != nil {
		return OutcomeNoop, err
	}

	switch {
	case inst.Custom && fromRegistry:
		return OutcomeNoop, nil
	case inst.Custom:
		if err := s.store.DeleteInstitution(ctx, id); err != nil {
			return OutcomeNoop, fmt.Errorf("failed to delete institution %q: %w", id, err)
		}
		return OutcomeHardDeleted, nil
	case fromRegistry:
		dependents, err := s.store.HasCustomDependents(ctx, id)
		if err != nil {
			return OutcomeNoop, fmt.Errorf("failed to check dependents of institution %q: %w", id, err)
		}
		if dependents {
			// a row already out of the live set keeps its state and origin
			if inst.Deleted {
				return OutcomeNoop, nil
			}
			if err := s.store.SoftDeleteInstitution(ctx, id, registry.OriginRegistry, false); err != nil {
				return OutcomeNoop, fmt.Errorf("failed to retire institution %q: %w", id, err)
			}
			slog.DebugContext(ctx, "Retired institution with custom dependents", "id", id)
			return OutcomeRetired, nil
		}
		if err := s.store.DeleteInstitution(ctx, id); err != nil {
			return OutcomeNoop, fmt.Errorf("failed to delete institution %q: %w", id, err)
		}
		return OutcomeHardDeleted, nil
	default:
		if err := s.store.SoftDeleteInstitution(ctx, id, registry.OriginAdmin, true); err != nil {
			return OutcomeNoop, fmt.Errorf("failed to soft delete institution %q: %w", id, err)
		}
		return OutcomeSoftDeleted, nil
	}
}

func (s *registryService) deleteProgram(ctx context.Context, id string, fromRegistry bool) (Outcome, error) {
	prog, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return OutcomeNoop, err
	}

	switch {
	case prog.Custom && fromRegistry:
		return OutcomeNoop, nil
	case prog.Custom || fromRegistry:
		if err := s.store.DeleteProgram(ctx, id); err != nil {
			return OutcomeNoop, fmt.Errorf("failed to delete program %q: %w", id, err)
		}
		return OutcomeHardDeleted, nil
	default:
		if err := s.store.SoftDeleteProgram(ctx, id, registry.OriginAdmin); err != nil {
			return OutcomeNoop, fmt.Errorf("failed to soft delete program %q: %w", id, err)
		}
		return OutcomeSoftDeleted, nil
	}
}

// Restore implements RegistryService. Restoring an institution also restores
// what its administrative delete cascaded to.
func (s *registryService) Restore(ctx context.Context, kind registry.Kind, id string) (err error) {
	ctx, span := s.startSpan(ctx, "service.Restore", kind, id)
	defer otel.EndSpan(span, &err)

	switch kind {
	case registry.KindInstitution:
		inst, err := s.store.GetInstitution(ctx, id)
		if err != nil {
			return err
		}
		if !inst.Deleted {
			return fmt.Errorf("institution %q is not deleted: %w", id, registry.ErrNotFound)
		}
		if err := s.store.RestoreInstitution(ctx, id); err != nil {
			return fmt.Errorf("failed to restore institution %q: %w", id, err)
		}
	case registry.KindProgram:
		prog, err := s.store.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		if !prog.Deleted {
			return fmt.Errorf("program %q is not deleted: %w", id, registry.ErrNotFound)
		}
		if err := s.store.RestoreProgram(ctx, id); err != nil {
			return fmt.Errorf("failed to restore program %q: %w", id, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	slog.InfoContext(ctx, "Restored record", "kind", kind, "id", id)
	return nil
}
