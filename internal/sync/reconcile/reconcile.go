// Package reconcile applies a parsed registry snapshot to the store.
//
// Institutions are written before programs so every program of the pass finds
// its owner. Registry rows that the snapshot no longer carries are removed
// through the deletion procedure with fromRegistry set, which leaves custom
// rows alone. Domain rejections and ownership conflicts are counted and
// skipped; any other store failure aborts the rest of the pass without undoing
// what was already written.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/accreg-sync/internal/otel"
	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/snapshot"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/telemetry"
)

// TracerName is the name of the tracer used for reconciliation spans
const TracerName = "github.com/stacklok/accreg-sync/reconcile"

// ErrPersistence wraps store failures that abort a pass
var ErrPersistence = errors.New("persistence failure")

//go:generate mockgen -destination=mocks/mock_reconciler.go -package=mocks github.com/stacklok/accreg-sync/internal/sync/reconcile Reconciler

// Reconciler applies snapshots to the store
type Reconciler interface {
	Reconcile(ctx context.Context, snap *snapshot.Snapshot) (*Result, error)
}

// Deleter is the deletion procedure
type Deleter interface {
	Delete(ctx context.Context, kind registry.Kind, id string, fromRegistry bool) (service.Outcome, error)
}

// Counters tallies what happened to the records of one kind
type Counters struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Retained  int `json:"retained"`
	Rejected  int `json:"rejected"`
	Conflicts int `json:"conflicts"`
	Deleted   int `json:"deleted"`
}

// Result describes a finished pass
type Result struct {
	// KeptInstitutionIDs and KeptProgramIDs are the sorted ids the pass kept
	KeptInstitutionIDs []string
	KeptProgramIDs     []string

	Institutions Counters
	Programs     Counters
}

type outcome int

const (
	outcomeAdded outcome = iota
	outcomeUpdated
	outcomeRetained
	outcomeRejected
	outcomeConflict
)

func (c *Counters) count(o outcome) {
	switch o {
	case outcomeAdded:
		c.Added++
	case outcomeUpdated:
		c.Updated++
	case outcomeRetained:
		c.Retained++
	case outcomeRejected:
		c.Rejected++
	case outcomeConflict:
		c.Conflicts++
	}
}

func (o outcome) kept() bool {
	return o == outcomeAdded || o == outcomeUpdated || o == outcomeRetained
}

// Option configures the reconciler
type Option func(*reconciler)

// WithMetrics records per-record outcomes
func WithMetrics(m *telemetry.ReconcileMetrics) Option {
	return func(r *reconciler) {
		r.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer. Without it no spans are created.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *reconciler) {
		r.tracer = tracer
	}
}

type reconciler struct {
	store   store.Store
	deleter Deleter
	metrics *telemetry.ReconcileMetrics
	tracer  trace.Tracer
}

// New creates a reconciler writing to st and removing through deleter
func New(st store.Store, deleter Deleter, opts ...Option) Reconciler {
	r := &reconciler{store: st, deleter: deleter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile implements Reconciler. The pass is not interrupted by ctx
// cancellation once started; callers run it under a context that does not
// cancel.
func (r *reconciler) Reconcile(ctx context.Context, snap *snapshot.Snapshot) (_ *Result, err error) {
	ctx, span := otel.StartSpan(ctx, r.tracer, "reconcile.Reconcile", trace.WithAttributes(
		attribute.Int("snapshot.institutions", len(snap.Institutions)),
		attribute.Int("snapshot.programs", len(snap.Programs)),
	))
	defer otel.EndSpan(span, &err)

	res := &Result{}
	defer r.recordMetrics(ctx, res)

	keptInstitutions := make(map[string]struct{}, len(snap.Institutions))
	for _, inst := range snap.Institutions {
		o, err := r.upsertInstitution(ctx, inst)
		if err != nil {
			return nil, err
		}
		res.Institutions.count(o)
		if o.kept() {
			keptInstitutions[inst.ID] = struct{}{}
		}
	}

	keptPrograms := make(map[string]struct{}, len(snap.Programs))
	for _, prog := range snap.Programs {
		o, err := r.upsertProgram(ctx, prog)
		if err != nil {
			return nil, err
		}
		res.Programs.count(o)
		if o.kept() {
			keptPrograms[prog.ID] = struct{}{}
		}
	}

	var institutionIDs, programIDs []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		institutionIDs, err = r.store.ListInstitutionIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		programIDs, err = r.store.ListProgramIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: failed to list current ids: %v", ErrPersistence, err)
	}

	// programs first: removing an institution takes its programs along
	if res.Programs.Deleted, err = r.deleteMissing(ctx, registry.KindProgram, programIDs, keptPrograms); err != nil {
		return nil, err
	}
	if res.Institutions.Deleted, err = r.deleteMissing(
		ctx, registry.KindInstitution, institutionIDs, keptInstitutions,
	); err != nil {
		return nil, err
	}

	res.KeptInstitutionIDs = sortedKeys(keptInstitutions)
	res.KeptProgramIDs = sortedKeys(keptPrograms)

	slog.InfoContext(ctx, "Reconciled snapshot",
		"institutions_kept", len(res.KeptInstitutionIDs),
		"programs_kept", len(res.KeptProgramIDs),
		"institutions_added", res.Institutions.Added,
		"programs_added", res.Programs.Added,
		"rejected", res.Institutions.Rejected+res.Programs.Rejected,
		"conflicts", res.Institutions.Conflicts+res.Programs.Conflicts,
		"institutions_deleted", res.Institutions.Deleted,
		"programs_deleted", res.Programs.Deleted,
	)
	return res, nil
}

func (r *reconciler) upsertInstitution(ctx context.Context, in *registry.Institution) (outcome, error) {
	if in == nil {
		return outcomeRejected, nil
	}
	inst := *in
	inst.Custom = false
	inst.Deleted = false
	if err := inst.Validate(); err != nil {
		slog.DebugContext(ctx, "Rejected institution", "id", inst.ID, "error", err)
		return outcomeRejected, nil
	}

	err := r.store.AddInstitution(ctx, &inst)
	if err == nil {
		return outcomeAdded, nil
	}
	if !errors.Is(err, registry.ErrAlreadyExists) {
		return 0, fmt.Errorf("%w: failed to add institution %q: %v", ErrPersistence, inst.ID, err)
	}

	existing, err := r.store.GetInstitution(ctx, inst.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to load institution %q: %v", ErrPersistence, inst.ID, err)
	}
	switch {
	case existing.Custom:
		slog.WarnContext(ctx, "Registry institution collides with a custom one", "id", inst.ID,
			"error", registry.ErrOwnershipConflict)
		return outcomeConflict, nil
	case existing.Deleted && existing.DeletionOrigin == registry.OriginAdmin:
		return outcomeRetained, nil
	}

	if err := r.store.UpdateInstitution(ctx, &inst); err != nil {
		return 0, fmt.Errorf("%w: failed to update institution %q: %v", ErrPersistence, inst.ID, err)
	}
	return outcomeUpdated, nil
}

func (r *reconciler) upsertProgram(ctx context.Context, in *registry.Program) (outcome, error) {
	if in == nil {
		return outcomeRejected, nil
	}
	prog := *in
	prog.Custom = false
	prog.Deleted = false
	if err := prog.Validate(); err != nil {
		slog.DebugContext(ctx, "Rejected program", "id", prog.ID, "error", err)
		return outcomeRejected, nil
	}

	err := r.store.AddProgram(ctx, &prog)
	switch {
	case err == nil:
		return outcomeAdded, nil
	case registry.IsDomainRejection(err):
		slog.DebugContext(ctx, "Rejected program", "id", prog.ID, "error", err)
		return outcomeRejected, nil
	case !errors.Is(err, registry.ErrAlreadyExists):
		return 0, fmt.Errorf("%w: failed to add program %q: %v", ErrPersistence, prog.ID, err)
	}

	existing, err := r.store.GetProgram(ctx, prog.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to load program %q: %v", ErrPersistence, prog.ID, err)
	}
	switch {
	case existing.Custom:
		slog.WarnContext(ctx, "Registry program collides with a custom one", "id", prog.ID,
			"error", registry.ErrOwnershipConflict)
		return outcomeConflict, nil
	case existing.Deleted && existing.DeletionOrigin == registry.OriginAdmin:
		return outcomeRetained, nil
	}

	if err := r.store.UpdateProgram(ctx, &prog); err != nil {
		if registry.IsDomainRejection(err) {
			return outcomeRejected, nil
		}
		return 0, fmt.Errorf("%w: failed to update program %q: %v", ErrPersistence, prog.ID, err)
	}
	return outcomeUpdated, nil
}

// deleteMissing removes every id of current that is not kept and returns how many left the live set
func (r *reconciler) deleteMissing(
	ctx context.Context, kind registry.Kind, current []string, kept map[string]struct{},
) (int, error) {
	removed := 0
	for _, id := range current {
		if _, ok := kept[id]; ok {
			continue
		}
		o, err := r.deleter.Delete(ctx, kind, id, true)
		if errors.Is(err, registry.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("%w: failed to delete %s %q: %v", ErrPersistence, kind, id, err)
		}
		if o.Removed() {
			removed++
		}
	}
	return removed, nil
}

func (r *reconciler) recordMetrics(ctx context.Context, res *Result) {
	for kind, c := range map[registry.Kind]Counters{
		registry.KindInstitution: res.Institutions,
		registry.KindProgram:     res.Programs,
	} {
		r.metrics.RecordOutcome(ctx, string(kind), "added", c.Added)
		r.metrics.RecordOutcome(ctx, string(kind), "updated", c.Updated)
		r.metrics.RecordOutcome(ctx, string(kind), "retained", c.Retained)
		r.metrics.RecordOutcome(ctx, string(kind), "rejected", c.Rejected)
		r.metrics.RecordOutcome(ctx, string(kind), "conflict", c.Conflicts)
		r.metrics.RecordOutcome(ctx, string(kind), "deleted", c.Deleted)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
