package schedule_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/api/schedule"
	"github.com/stacklok/accreg-sync/internal/status"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator/mocks"
	"github.com/stacklok/accreg-sync/internal/sync/reconcile"
)

const defaultInterval = 12 * time.Hour

func serve(t *testing.T, c coordinator.Coordinator, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	schedule.Router(c, defaultInterval).ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func runningStatus(interval time.Duration) *coordinator.Status {
	completion := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)
	return &coordinator.Status{
		Running:  interval > 0,
		Interval: interval,
		Sync: &status.SyncStatus{
			Phase:          status.SyncPhaseComplete,
			LastCompletion: &completion,
			SnapshotHash:   "abc",
			Counts:         status.Counts{InstitutionsKept: 3, ProgramsKept: 7},
		},
	}
}

func TestStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantInterval time.Duration
		startErr     error
		wantStatus   int
	}{
		{
			name:         "explicit interval",
			body:         `{"interval_seconds": 60}`,
			wantInterval: time.Minute,
			wantStatus:   http.StatusAccepted,
		},
		{
			name:         "empty body uses the default interval",
			wantInterval: defaultInterval,
			wantStatus:   http.StatusAccepted,
		},
		{
			name:         "zero interval uses the default interval",
			body:         `{"interval_seconds": 0}`,
			wantInterval: defaultInterval,
			wantStatus:   http.StatusAccepted,
		},
		{
			name:       "negative interval is rejected",
			body:       `{"interval_seconds": -5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "interval overflowing a duration is rejected",
			body:       `{"interval_seconds": 18446744074}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "largest representable interval is accepted",
			body:         `{"interval_seconds": 9223372036}`,
			wantInterval: 9223372036 * time.Second,
			wantStatus:   http.StatusAccepted,
		},
		{
			name:       "malformed body is rejected",
			body:       `{"interval_seconds": "soon"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "coordinator rejection is a bad request",
			body:         `{"interval_seconds": 60}`,
			wantInterval: time.Minute,
			startErr:     coordinator.ErrInvalidInterval,
			wantStatus:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			coord := mocks.NewMockCoordinator(ctrl)
			if tt.wantInterval > 0 {
				coord.EXPECT().Start(tt.wantInterval).Return(tt.startErr)
			}
			if tt.wantStatus == http.StatusAccepted {
				coord.EXPECT().Status(gomock.Any()).Return(runningStatus(tt.wantInterval), nil)
			}

			rr := serve(t, coord, http.MethodPost, "/start", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusAccepted {
				var got schedule.StatusResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.True(t, got.Running)
				assert.Equal(t, int64(tt.wantInterval/time.Second), got.IntervalSeconds)
			}
		})
	}
}

func TestStop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := mocks.NewMockCoordinator(ctrl)
	gomock.InOrder(
		coord.EXPECT().Stop(),
		coord.EXPECT().Status(gomock.Any()).Return(runningStatus(0), nil),
	)

	rr := serve(t, coord, http.MethodPost, "/stop", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got schedule.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.False(t, got.Running)
	assert.Zero(t, got.IntervalSeconds)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := mocks.NewMockCoordinator(ctrl)
	coord.EXPECT().Status(gomock.Any()).Return(runningStatus(time.Hour), nil)

	rr := serve(t, coord, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"running": true,
		"interval_seconds": 3600,
		"phase": "Complete",
		"last_completion": "2025-05-01T06:00:00Z",
		"attempt_count": 0,
		"snapshot_hash": "abc",
		"counts": {"institutionsKept": 3, "programsKept": 7, "rejected": 0, "conflicts": 0, "deleted": 0}
	}`, rr.Body.String())
}

func TestStatus_StateFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := mocks.NewMockCoordinator(ctrl)
	coord.EXPECT().Status(gomock.Any()).Return(nil, errors.New("status file is corrupt"))

	rr := serve(t, coord, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *pkgsync.Result
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name: "successful pass returns counters",
			result: &pkgsync.Result{
				Hash:     "deadbeef",
				Origin:   "file:///data/snapshot.xml",
				Duration: 1500 * time.Millisecond,
				Reconcile: &reconcile.Result{
					Institutions: reconcile.Counters{Added: 2, Deleted: 1},
					Programs:     reconcile.Counters{Updated: 4, Rejected: 1},
				},
			},
			wantStatus: http.StatusOK,
			wantBody: `{
				"hash": "deadbeef",
				"origin": "file:///data/snapshot.xml",
				"duration_ms": 1500,
				"institutions": {"added": 2, "updated": 0, "retained": 0, "rejected": 0, "conflicts": 0, "deleted": 1},
				"programs": {"added": 0, "updated": 4, "retained": 0, "rejected": 1, "conflicts": 0, "deleted": 0}
			}`,
		},
		{
			name: "failed pass is a bad gateway",
			err: &pkgsync.Error{
				Err:     errors.New("503"),
				Message: "failed to fetch snapshot: 503",
				Reason:  pkgsync.ReasonFetchFailed,
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error": "failed to fetch snapshot: 503"}`,
		},
		{
			name:       "unexpected failure is an internal error",
			err:        errors.New("status write failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error": "internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			coord := mocks.NewMockCoordinator(ctrl)
			coord.EXPECT().RunOnce(gomock.Any()).Return(tt.result, tt.err)

			rr := serve(t, coord, http.MethodPost, "/run", "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestRun_AbandonedWhileBusy(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := mocks.NewMockCoordinator(ctrl)
	coord.EXPECT().RunOnce(gomock.Any()).DoAndReturn(func(ctx context.Context) (*pkgsync.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", nil).WithContext(ctx)
	schedule.Router(coord, defaultInterval).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
