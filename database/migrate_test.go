//go:build integration

package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := pool.Config().ConnString()

	version, dirty, err := Version(connString)
	require.NoError(t, err)
	assert.False(t, dirty)

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, uint(len(fnames)), version)

	require.NoError(t, MigrateDown(connString, 0))
	version, _, err = Version(connString)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, MigrateUp(connString))
	require.NoError(t, MigrateUp(connString), "applying twice is a no-op")

	var tables int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_name IN ('institutions', 'programs', 'sync_state')`).Scan(&tables))
	assert.Equal(t, 3, tables)
}
