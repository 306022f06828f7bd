package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/service/mocks"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
	coordmocks "github.com/stacklok/accreg-sync/internal/sync/coordinator/mocks"
)

func TestNewServer_Routes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		setup      func(svc *mocks.MockRegistryService, coord *coordmocks.MockCoordinator)
		withMetric bool
		wantStatus int
	}{
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:   "schedule status",
			method: http.MethodGet,
			path:   "/schedule/status",
			setup: func(_ *mocks.MockRegistryService, coord *coordmocks.MockCoordinator) {
				coord.EXPECT().Status(gomock.Any()).Return(&coordinator.Status{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "start without body uses the configured interval",
			method: http.MethodPost,
			path:   "/schedule/start",
			setup: func(_ *mocks.MockRegistryService, coord *coordmocks.MockCoordinator) {
				coord.EXPECT().Start(90 * time.Minute).Return(nil)
				coord.EXPECT().Status(gomock.Any()).Return(&coordinator.Status{Running: true}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "institution delete",
			method: http.MethodDelete,
			path:   "/institutions/I1",
			setup: func(svc *mocks.MockRegistryService, _ *coordmocks.MockCoordinator) {
				svc.EXPECT().Delete(gomock.Any(), registry.KindInstitution, "I1", false).Return(service.OutcomeSoftDeleted, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "program restore",
			method: http.MethodPost,
			path:   "/programs/P1/restore",
			setup: func(svc *mocks.MockRegistryService, _ *coordmocks.MockCoordinator) {
				svc.EXPECT().Restore(gomock.Any(), registry.KindProgram, "P1").Return(nil)
				svc.EXPECT().GetProgram(gomock.Any(), "P1").Return(registry.NewTestProgram("P1", "I1"), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "lookup",
			method: http.MethodGet,
			path:   "/lookups/ugs-codes",
			setup: func(svc *mocks.MockRegistryService, _ *coordmocks.MockCoordinator) {
				svc.EXPECT().Lookup(gomock.Any(), registry.LookupUGSCodes).Return([]string{"09.00.00"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics when enabled",
			method:     http.MethodGet,
			path:       "/metrics",
			withMetric: true,
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "metrics when disabled",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			svc := mocks.NewMockRegistryService(ctrl)
			coord := coordmocks.NewMockCoordinator(ctrl)
			if tt.setup != nil {
				tt.setup(svc, coord)
			}

			opts := []ServerOption{WithDefaultInterval(90 * time.Minute)}
			if tt.withMetric {
				opts = append(opts, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusTeapot)
				})))
			}

			rr := httptest.NewRecorder()
			NewServer(svc, coord, opts...).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestNewServer_AppliesMiddlewares(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	srv := NewServer(mocks.NewMockRegistryService(ctrl), coordmocks.NewMockCoordinator(ctrl),
		WithMiddlewares(mw, LoggingMiddleware))

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
