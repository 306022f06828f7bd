package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/accreg-sync/internal/config"
)

func databaseConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("secret\n"), 0o600))
	return &config.DatabaseConfig{
		Host:         "db",
		Port:         5432,
		User:         "accreg",
		Database:     "accreg",
		PasswordFile: passwordFile,
	}
}

func TestVerifySchema(t *testing.T) {
	t.Parallel()

	postgres := func() *config.Config {
		return &config.Config{
			Storage:  config.StorageConfig{Type: config.StorageTypePostgres},
			Database: databaseConfig(t),
		}
	}
	version := func(v uint, dirty bool, err error) schemaVersionFunc {
		return func(string) (uint, bool, error) { return v, dirty, err }
	}

	tests := []struct {
		name      string
		cfg       *config.Config
		versionFn schemaVersionFunc
		wantErr   string
	}{
		{
			name: "memory storage is not checked",
			cfg:  &config.Config{Storage: config.StorageConfig{Type: config.StorageTypeMemory}},
			versionFn: func(string) (uint, bool, error) {
				panic("must not be called")
			},
		},
		{
			name:      "migrated schema passes",
			cfg:       postgres(),
			versionFn: version(1, false, nil),
		},
		{
			name:      "unmigrated schema is refused",
			cfg:       postgres(),
			versionFn: version(0, false, nil),
			wantErr:   "not migrated",
		},
		{
			name:      "dirty schema is refused",
			cfg:       postgres(),
			versionFn: version(1, true, nil),
			wantErr:   "dirty",
		},
		{
			name:      "version read failure is reported",
			cfg:       postgres(),
			versionFn: version(0, false, errors.New("connection refused")),
			wantErr:   "connection refused",
		},
		{
			name:    "postgres without database config is refused",
			cfg:     &config.Config{Storage: config.StorageConfig{Type: config.StorageTypePostgres}},
			wantErr: "database configuration is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := verifySchema(tt.cfg, tt.versionFn)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
