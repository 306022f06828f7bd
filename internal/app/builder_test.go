package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/app/storage/mocks"
	"github.com/stacklok/accreg-sync/internal/config"
	statemocks "github.com/stacklok/accreg-sync/internal/sync/state/mocks"
)

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":8080"},
		{name: "localhost with port", addr: "localhost:9090"},
		{name: "ipv4 with port", addr: "127.0.0.1:8081"},
		{name: "empty address", addr: "", wantErr: true},
		{name: "missing port", addr: "127.0.0.1:", wantErr: true},
		{name: "no colon", addr: "8080", wantErr: true},
		{name: "port out of range", addr: ":70000", wantErr: true},
		{name: "hostname is not an ip", addr: "example.com:80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &syncAppConfig{address: defaultHTTPAddress}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, defaultHTTPAddress, cfg.address)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	t.Run("config is required", func(t *testing.T) {
		t.Parallel()
		_, err := baseConfig()
		require.ErrorContains(t, err, "config cannot be nil")
	})

	t.Run("defaults are applied", func(t *testing.T) {
		t.Parallel()
		cfg, err := baseConfig(WithConfig(&config.Config{}))
		require.NoError(t, err)
		assert.Equal(t, defaultHTTPAddress, cfg.address)
		assert.Equal(t, defaultRequestTimeout, cfg.requestTimeout)
		assert.NotNil(t, cfg.schemaVersion)
	})

	t.Run("option errors stop the build", func(t *testing.T) {
		t.Parallel()
		_, err := baseConfig(WithConfig(&config.Config{}), WithAddress(""))
		require.ErrorContains(t, err, "address cannot be empty")
	})
}

func TestNewSyncApp_StorageFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, f *mocks.MockFactory, ctrl *gomock.Controller)
		wantErr string
	}{
		{
			name: "store creation failure cleans up",
			setup: func(_ *testing.T, f *mocks.MockFactory, _ *gomock.Controller) {
				f.EXPECT().CreateStore(gomock.Any()).Return(nil, errors.New("disk full"))
				f.EXPECT().Cleanup()
			},
			wantErr: "disk full",
		},
		{
			name: "state service failure cleans up",
			setup: func(t *testing.T, f *mocks.MockFactory, _ *gomock.Controller) {
				f.EXPECT().CreateStore(gomock.Any()).Return(memoryStore(t), nil)
				f.EXPECT().CreateStateService(gomock.Any()).Return(nil, errors.New("no status file"))
				f.EXPECT().Cleanup()
			},
			wantErr: "no status file",
		},
		{
			name: "state initialization failure cleans up",
			setup: func(t *testing.T, f *mocks.MockFactory, ctrl *gomock.Controller) {
				stateSvc := statemocks.NewMockSyncStateService(ctrl)
				stateSvc.EXPECT().Initialize(gomock.Any()).Return(errors.New("sync_state missing"))
				f.EXPECT().CreateStore(gomock.Any()).Return(memoryStore(t), nil)
				f.EXPECT().CreateStateService(gomock.Any()).Return(stateSvc, nil)
				f.EXPECT().Cleanup()
			},
			wantErr: "sync_state missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			factory := mocks.NewMockFactory(ctrl)
			tt.setup(t, factory, ctrl)

			_, err := NewSyncApp(context.Background(),
				WithConfig(fileSourceConfig(t)),
				WithStorageFactory(factory),
			)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewSyncApp_RefusesUnmigratedSchema(t *testing.T) {
	t.Parallel()

	cfg := fileSourceConfig(t)
	cfg.Storage.Type = config.StorageTypePostgres
	cfg.Database = databaseConfig(t)

	_, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		func(c *syncAppConfig) error {
			c.schemaVersion = func(string) (uint, bool, error) { return 0, false, nil }
			return nil
		},
	)
	require.ErrorIs(t, err, ErrSchemaNotMigrated)
}

func TestRequestTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		method       string
		path         string
		wantDeadline bool
	}{
		{name: "regular requests get a deadline", method: http.MethodGet, path: "/schedule/status", wantDeadline: true},
		{name: "run now is not limited", method: http.MethodPost, path: "/schedule/run", wantDeadline: false},
		{name: "get on the run path is limited", method: http.MethodGet, path: "/schedule/run", wantDeadline: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hasDeadline bool
			handler := requestTimeout(time.Minute)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				_, hasDeadline = r.Context().Deadline()
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantDeadline, hasDeadline)
		})
	}
}
