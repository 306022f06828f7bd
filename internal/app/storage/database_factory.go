package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/db"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/postgres"
	"github.com/stacklok/accreg-sync/internal/sync/state"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory share one PostgreSQL connection pool.
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
	tracer trace.Tracer
	caches caches
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithTracer sets the OpenTelemetry tracer for the postgres store.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.tracer = tracer
	}
}

// WithPool uses an existing pool instead of opening one from the configuration.
// The factory takes ownership of the pool.
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
// The schema is not migrated here; run the migrate command first.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := &DatabaseFactory{config: cfg}
	for _, opt := range opts {
		opt(factory)
	}

	if factory.pool == nil {
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for postgres storage")
		}
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		factory.pool = pool
	}

	slog.Info("Created database-backed storage factory")
	return factory, nil
}

// CreateStore creates the postgres store wrapped with the lookup cache
func (d *DatabaseFactory) CreateStore(ctx context.Context) (store.Store, error) {
	slog.Debug("Creating postgres store")

	opts := []postgres.Option{postgres.WithConnectionPool(d.pool)}
	if d.tracer != nil {
		opts = append(opts, postgres.WithTracer(d.tracer))
		slog.Debug("Postgres store tracing enabled")
	}

	s, err := postgres.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres store: %w", err)
	}
	return d.caches.wrap(ctx, &d.config.Cache, s)
}

// CreateStateService creates the state service over the sync_state table
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.SyncStateService, error) {
	slog.Debug("Creating database-backed state service")
	return state.NewStateService(d.config, nil, d.pool)
}

// Cleanup closes the lookup caches and the connection pool
func (d *DatabaseFactory) Cleanup() {
	d.caches.closeAll()
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
