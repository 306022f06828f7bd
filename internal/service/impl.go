package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/accreg-sync/internal/otel"
	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

// ServiceTracerName is the name used for the service tracer
const ServiceTracerName = "github.com/stacklok/accreg-sync/service"

// Option is a functional option for configuring the registry service
type Option func(*registryService)

// WithTracer sets the OpenTelemetry tracer. Without it no spans are created.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *registryService) {
		s.tracer = tracer
	}
}

// WithIDGenerator replaces the UUIDv4 generator of custom record ids
func WithIDGenerator(newID func() string) Option {
	return func(s *registryService) {
		s.newID = newID
	}
}

type registryService struct {
	store  store.Store
	tracer trace.Tracer
	newID  func() string
}

var _ RegistryService = (*registryService)(nil)

// NewRegistryService creates the service on top of st
func NewRegistryService(st store.Store, opts ...Option) (RegistryService, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &registryService{
		store: st,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *registryService) startSpan(
	ctx context.Context, name string, kind registry.Kind, id string,
) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, s.tracer, name, trace.WithAttributes(
		otel.AttrRecordKind.String(string(kind)),
		otel.AttrRecordID.String(id),
	))
}

// CheckReadiness implements RegistryService
func (s *registryService) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// CreateInstitution implements RegistryService
func (s *registryService) CreateInstitution(
	ctx context.Context, inst *registry.Institution,
) (_ *registry.Institution, err error) {
	ctx, span := s.startSpan(ctx, "service.CreateInstitution", registry.KindInstitution, "")
	defer otel.EndSpan(span, &err)

	if inst == nil {
		return nil, fmt.Errorf("%w: institution is nil", registry.ErrInvalidRecord)
	}
	if inst.ID != "" {
		return nil, registry.ErrSelfCreatedID
	}

	created := *inst
	created.ID = s.newID()
	created.Custom = true
	created.Deleted = false
	if err := created.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.AddInstitution(ctx, &created); err != nil {
		return nil, fmt.Errorf("failed to create institution: %w", err)
	}

	slog.InfoContext(ctx, "Created custom institution", "id", created.ID)
	return s.store.GetInstitution(ctx, created.ID)
}

// CreateProgram implements RegistryService
func (s *registryService) CreateProgram(ctx context.Context, prog *registry.Program) (_ *registry.Program, err error) {
	ctx, span := s.startSpan(ctx, "service.CreateProgram", registry.KindProgram, "")
	defer otel.EndSpan(span, &err)

	if prog == nil {
		return nil, fmt.Errorf("%w: program is nil", registry.ErrInvalidRecord)
	}
	if prog.ID != "" {
		return nil, registry.ErrSelfCreatedID
	}

	created := *prog
	created.ID = s.newID()
	created.Custom = true
	created.Deleted = false
	if err := created.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.AddProgram(ctx, &created); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	slog.InfoContext(ctx, "Created custom program", "id", created.ID, "institution_id", created.InstitutionID)
	return s.store.GetProgram(ctx, created.ID)
}

// UpdateInstitution implements RegistryService
func (s *registryService) UpdateInstitution(
	ctx context.Context, inst *registry.Institution,
) (_ *registry.Institution, err error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: institution is nil", registry.ErrInvalidRecord)
	}
	ctx, span := s.startSpan(ctx, "service.UpdateInstitution", registry.KindInstitution, inst.ID)
	defer otel.EndSpan(span, &err)

	existing, err := s.GetInstitution(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	if !existing.Custom {
		return nil, fmt.Errorf("institution %q: %w", inst.ID, registry.ErrOwnershipConflict)
	}

	updated := *inst
	updated.Custom = true
	updated.Deleted = false
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateInstitution(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update institution: %w", err)
	}
	return s.store.GetInstitution(ctx, updated.ID)
}

// UpdateProgram implements RegistryService
func (s *registryService) UpdateProgram(ctx context.Context, prog *registry.Program) (_ *registry.Program, err error) {
	if prog == nil {
		return nil, fmt.Errorf("%w: program is nil", registry.ErrInvalidRecord)
	}
	ctx, span := s.startSpan(ctx, "service.UpdateProgram", registry.KindProgram, prog.ID)
	defer otel.EndSpan(span, &err)

	existing, err := s.GetProgram(ctx, prog.ID)
	if err != nil {
		return nil, err
	}
	if !existing.Custom {
		return nil, fmt.Errorf("program %q: %w", prog.ID, registry.ErrOwnershipConflict)
	}

	updated := *prog
	updated.Custom = true
	updated.Deleted = false
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProgram(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}
	return s.store.GetProgram(ctx, updated.ID)
}

// GetInstitution implements RegistryService
func (s *registryService) GetInstitution(ctx context.Context, id string) (*registry.Institution, error) {
	inst, err := s.store.GetInstitution(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.Deleted {
		return nil, fmt.Errorf("institution %q: %w", id, registry.ErrNotFound)
	}
	return inst, nil
}

// GetProgram implements RegistryService
func (s *registryService) GetProgram(ctx context.Context, id string) (*registry.Program, error) {
	prog, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if prog.Deleted {
		return nil, fmt.Errorf("program %q: %w", id, registry.ErrNotFound)
	}
	return prog, nil
}

// Lookup implements RegistryService
func (s *registryService) Lookup(ctx context.Context, lookup registry.Lookup) ([]string, error) {
	return s.store.Lookup(ctx, lookup)
}

// Stats implements RegistryService
func (s *registryService) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}
