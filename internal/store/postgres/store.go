// Package postgres provides the PostgreSQL implementation of store.Store on
// top of the sqlc generated queries.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/accreg-sync/internal/db/sqlc"
	"github.com/stacklok/accreg-sync/internal/otel"
	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

// TracerName is the name of the tracer used for store spans
const TracerName = "github.com/stacklok/accreg-sync/store/postgres"

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the postgres store
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The store closes the pool on Close.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer. Without it no spans are created.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// Store persists institutions and programs in PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ store.Store = (*Store)(nil)

// New creates a postgres store with the given options
func New(opts ...Option) (*Store, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Store{pool: o.pool, tracer: o.tracer}, nil
}

func (s *Store) startSpan(ctx context.Context, name string, id string) (context.Context, trace.Span) {
	attrs := []trace.SpanStartOption{trace.WithAttributes(otel.AttrStoreType.String("postgres"))}
	if id != "" {
		attrs = append(attrs, trace.WithAttributes(otel.AttrRecordID.String(id)))
	}
	return otel.StartSpan(ctx, s.tracer, name, attrs...)
}

// inTx runs fn in a read committed transaction
func (s *Store) inTx(ctx context.Context, fn func(q *sqlc.Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(sqlc.New(s.pool).WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into registry sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return registry.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return registry.ErrAlreadyExists
		case pgForeignKeyViolation:
			return registry.ErrOrphanProgram
		}
	}
	return err
}

func notFoundIfNone(rows int64) error {
	if rows == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// AddInstitution implements store.Store
func (s *Store) AddInstitution(ctx context.Context, inst *registry.Institution) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.AddInstitution", inst.ID)
	defer otel.EndSpan(span, &err)

	c := *inst
	c.Normalize()
	return mapError(sqlc.New(s.pool).InsertInstitution(ctx, insertInstitutionParams(&c)))
}

// UpdateInstitution implements store.Store
func (s *Store) UpdateInstitution(ctx context.Context, inst *registry.Institution) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.UpdateInstitution", inst.ID)
	defer otel.EndSpan(span, &err)

	c := *inst
	c.Normalize()
	rows, err := sqlc.New(s.pool).UpdateInstitution(ctx, updateInstitutionParams(&c))
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(rows)
}

// GetInstitution implements store.Store
func (s *Store) GetInstitution(ctx context.Context, id string) (_ *registry.Institution, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetInstitution", id)
	defer otel.EndSpan(span, &err)

	row, err := sqlc.New(s.pool).GetInstitution(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return institutionFromRow(row), nil
}

// ListInstitutionIDs implements store.Store
func (s *Store) ListInstitutionIDs(ctx context.Context) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListInstitutionIDs", "")
	defer otel.EndSpan(span, &err)

	ids, err := sqlc.New(s.pool).ListInstitutionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list institution ids: %w", err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(ids)))
	return ids, nil
}

// DeleteInstitution implements store.Store. Programs go with the institution
// through the foreign key; branches are detached first.
func (s *Store) DeleteInstitution(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.DeleteInstitution", id)
	defer otel.EndSpan(span, &err)

	return s.inTx(ctx, func(q *sqlc.Queries) error {
		rows, err := q.DeleteInstitution(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete institution: %w", err)
		}
		if err := notFoundIfNone(rows); err != nil {
			return err
		}
		if err := q.DetachBranches(ctx, id); err != nil {
			return fmt.Errorf("failed to detach branches: %w", err)
		}
		return nil
	})
}

// SoftDeleteInstitution implements store.Store
func (s *Store) SoftDeleteInstitution(
	ctx context.Context, id string, origin registry.DeletionOrigin, cascade bool,
) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.SoftDeleteInstitution", id)
	defer otel.EndSpan(span, &err)

	return s.inTx(ctx, func(q *sqlc.Queries) error {
		rows, err := q.SoftDeleteInstitution(ctx, sqlc.SoftDeleteInstitutionParams{
			DeletionOrigin: string(origin),
			ID:             id,
		})
		if err != nil {
			return fmt.Errorf("failed to soft delete institution: %w", err)
		}
		if err := notFoundIfNone(rows); err != nil {
			return err
		}
		if !cascade {
			return nil
		}

		branches, err := q.SoftDeleteBranches(ctx, sqlc.SoftDeleteBranchesParams{
			DeletionOrigin: string(origin),
			HeadID:         id,
		})
		if err != nil {
			return fmt.Errorf("failed to soft delete branches: %w", err)
		}
		if err := q.SoftDeleteProgramsOfInstitutions(ctx, sqlc.SoftDeleteProgramsOfInstitutionsParams{
			DeletionOrigin: string(origin),
			InstitutionIds: append([]string{id}, branches...),
		}); err != nil {
			return fmt.Errorf("failed to soft delete programs: %w", err)
		}
		return nil
	})
}

// RestoreInstitution implements store.Store
func (s *Store) RestoreInstitution(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.RestoreInstitution", id)
	defer otel.EndSpan(span, &err)

	return s.inTx(ctx, func(q *sqlc.Queries) error {
		row, err := q.GetInstitution(ctx, id)
		if err != nil {
			return mapError(err)
		}
		if _, err := q.RestoreInstitution(ctx, id); err != nil {
			return fmt.Errorf("failed to restore institution: %w", err)
		}
		if registry.DeletionOrigin(row.DeletionOrigin) != registry.OriginAdmin {
			return nil
		}

		branches, err := q.RestoreAdminBranches(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to restore branches: %w", err)
		}
		if err := q.RestoreAdminProgramsOfInstitutions(ctx, append([]string{id}, branches...)); err != nil {
			return fmt.Errorf("failed to restore programs: %w", err)
		}
		return nil
	})
}

// HasCustomDependents implements store.Store
func (s *Store) HasCustomDependents(ctx context.Context, id string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "postgres.HasCustomDependents", id)
	defer otel.EndSpan(span, &err)

	has, err := sqlc.New(s.pool).HasCustomDependents(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check custom dependents: %w", err)
	}
	return has, nil
}

// AddProgram implements store.Store
func (s *Store) AddProgram(ctx context.Context, prog *registry.Program) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.AddProgram", prog.ID)
	defer otel.EndSpan(span, &err)

	c := *prog
	c.Normalize()
	return mapError(sqlc.New(s.pool).InsertProgram(ctx, insertProgramParams(&c)))
}

// UpdateProgram implements store.Store
func (s *Store) UpdateProgram(ctx context.Context, prog *registry.Program) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.UpdateProgram", prog.ID)
	defer otel.EndSpan(span, &err)

	c := *prog
	c.Normalize()
	rows, err := sqlc.New(s.pool).UpdateProgram(ctx, updateProgramParams(&c))
	if err != nil {
		return mapError(err)
	}
	return notFoundIfNone(rows)
}

// GetProgram implements store.Store
func (s *Store) GetProgram(ctx context.Context, id string) (_ *registry.Program, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetProgram", id)
	defer otel.EndSpan(span, &err)

	row, err := sqlc.New(s.pool).GetProgram(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return programFromRow(row), nil
}

// ListProgramIDs implements store.Store
func (s *Store) ListProgramIDs(ctx context.Context) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListProgramIDs", "")
	defer otel.EndSpan(span, &err)

	ids, err := sqlc.New(s.pool).ListProgramIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list program ids: %w", err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(ids)))
	return ids, nil
}

// DeleteProgram implements store.Store
func (s *Store) DeleteProgram(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.DeleteProgram", id)
	defer otel.EndSpan(span, &err)

	rows, err := sqlc.New(s.pool).DeleteProgram(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	return notFoundIfNone(rows)
}

// SoftDeleteProgram implements store.Store
func (s *Store) SoftDeleteProgram(ctx context.Context, id string, origin registry.DeletionOrigin) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.SoftDeleteProgram", id)
	defer otel.EndSpan(span, &err)

	rows, err := sqlc.New(s.pool).SoftDeleteProgram(ctx, sqlc.SoftDeleteProgramParams{
		DeletionOrigin: string(origin),
		ID:             id,
	})
	if err != nil {
		return fmt.Errorf("failed to soft delete program: %w", err)
	}
	return notFoundIfNone(rows)
}

// RestoreProgram implements store.Store
func (s *Store) RestoreProgram(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.RestoreProgram", id)
	defer otel.EndSpan(span, &err)

	rows, err := sqlc.New(s.pool).RestoreProgram(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to restore program: %w", err)
	}
	return notFoundIfNone(rows)
}

// Lookup implements store.Store
func (s *Store) Lookup(ctx context.Context, lookup registry.Lookup) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "postgres.Lookup", "")
	defer otel.EndSpan(span, &err)
	span.SetAttributes(otel.AttrLookupName.String(string(lookup)))

	q := sqlc.New(s.pool)
	var values []string
	switch lookup {
	case registry.LookupRegions:
		values, err = q.ListRegions(ctx)
	case registry.LookupUGSCodes:
		values, err = q.ListUGSCodes(ctx)
	case registry.LookupProgramCodes:
		values, err = q.ListProgramCodes(ctx)
	default:
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", lookup, err)
	}
	return values, nil
}

// Stats implements store.Store
func (s *Store) Stats(ctx context.Context) (_ *store.Stats, err error) {
	ctx, span := s.startSpan(ctx, "postgres.Stats", "")
	defer otel.EndSpan(span, &err)

	q := sqlc.New(s.pool)
	inst, err := q.CountInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count institutions: %w", err)
	}
	prog, err := q.CountPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count programs: %w", err)
	}
	return &store.Stats{
		Institutions:        inst.Live,
		DeletedInstitutions: inst.Deleted,
		CustomInstitutions:  inst.Custom,
		Programs:            prog.Live,
		DeletedPrograms:     prog.Deleted,
		CustomPrograms:      prog.Custom,
	}, nil
}

// Ping implements store.Store
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close implements store.Store
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
