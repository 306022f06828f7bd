package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_LockIsExclusive(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "downloads")
	first, err := NewWorkspace(dir)
	require.NoError(t, err)
	second, err := NewWorkspace(dir)
	require.NoError(t, err)

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx)
	require.Error(t, err)

	unlock()
	unlock2, err := second.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestWorkspace_Commit(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	tmp, err := ws.TempFile(archiveFileName)
	require.NoError(t, err)
	_, err = tmp.WriteString("payload")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	path, err := ws.Commit(tmp.Name(), archiveFileName)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Dir(), archiveFileName), path)
	assert.NoFileExists(t, tmp.Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
