//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/accreg-sync/database"
	"github.com/stacklok/accreg-sync/internal/store"
	"github.com/stacklok/accreg-sync/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared, cleanup := database.SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanup)
	connString := shared.Config().ConnString()

	storetest.RunContractTests(t, func(t *testing.T) store.Store {
		t.Helper()

		_, err := shared.Exec(ctx, "TRUNCATE programs, institutions")
		require.NoError(t, err)

		// the store closes its pool, so each case gets its own
		pool, err := pgxpool.New(ctx, connString)
		require.NoError(t, err)

		s, err := New(WithConnectionPool(pool), WithTracer(noop.NewTracerProvider().Tracer("test")))
		require.NoError(t, err)
		return s
	})
}

func TestNew_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.ErrorContains(t, err, "pgx pool is required")
}
