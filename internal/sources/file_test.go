package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/accreg-sync/internal/config"
)

func TestFileSourceHandler_Fetch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "snapshot.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(testSnapshot), 0o600))
	zipPath := filepath.Join(dir, "snapshot.zip")
	require.NoError(t, os.WriteFile(zipPath, zipBytes(t, map[string]string{"inner.xml": testSnapshot}), 0o600))
	emptyDir := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(emptyDir, 0o750))

	tests := []struct {
		name     string
		path     string
		wantBase string
		wantErr  string
	}{
		{name: "xml file is used in place", path: xmlPath, wantBase: "snapshot.xml"},
		{name: "zip file is extracted", path: zipPath, wantBase: "inner.xml"},
		{name: "directory yields its first xml", path: dir, wantBase: "snapshot.xml"},
		{name: "directory without xml", path: emptyDir, wantErr: ErrNoSnapshot.Error()},
		{name: "missing file", path: filepath.Join(dir, "missing.xml"), wantErr: "file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewFileSourceHandler()
			res, err := h.Fetch(context.Background(), &config.SourceConfig{
				Type:        config.SourceTypeFile,
				File:        &config.FileConfig{Path: tt.path},
				DownloadDir: t.TempDir(),
			})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, filepath.Base(res.Path))
			assert.Equal(t, tt.path, res.Origin)
			assert.Equal(t, int64(len(testSnapshot)), res.Size)
		})
	}
}

func TestFileSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	h := NewFileSourceHandler()
	assert.Error(t, h.Validate(nil))
	assert.Error(t, h.Validate(&config.SourceConfig{}))
	assert.Error(t, h.Validate(&config.SourceConfig{File: &config.FileConfig{}}))
	assert.NoError(t, h.Validate(&config.SourceConfig{File: &config.FileConfig{Path: "x.xml"}}))
}
