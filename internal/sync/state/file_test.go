package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/status"
	statusmocks "github.com/stacklok/accreg-sync/internal/status/mocks"
)

func newFileService(t *testing.T) (SyncStateService, status.StatusPersistence) {
	t.Helper()
	persistence := status.NewFileStatusPersistence(filepath.Join(t.TempDir(), "status.json"))
	return NewFileStateService(persistence), persistence
}

func TestFileStateService_Initialize(t *testing.T) {
	t.Parallel()

	completed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		stored      *status.SyncStatus
		wantPhase   status.SyncPhase
		wantMessage string
	}{
		{
			name:        "no_status_file",
			wantPhase:   status.SyncPhaseFailed,
			wantMessage: messageNoPreviousSync,
		},
		{
			name:        "interrupted_pass",
			stored:      &status.SyncStatus{Phase: status.SyncPhaseSyncing, LastAttempt: &completed},
			wantPhase:   status.SyncPhaseFailed,
			wantMessage: messageInterrupted,
		},
		{
			name:        "completed_pass_is_kept",
			stored:      &status.SyncStatus{Phase: status.SyncPhaseComplete, Message: "ok", LastAttempt: &completed, LastCompletion: &completed},
			wantPhase:   status.SyncPhaseComplete,
			wantMessage: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			svc, persistence := newFileService(t)
			if tt.stored != nil {
				require.NoError(t, persistence.SaveStatus(ctx, tt.stored))
			}

			require.NoError(t, svc.Initialize(ctx))

			got, err := svc.GetSyncStatus(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, got.Phase)
			assert.Equal(t, tt.wantMessage, got.Message)

			// the recovered status is persisted
			onDisk, err := persistence.LoadStatus(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, onDisk.Phase)
		})
	}
}

func TestFileStateService_LoadErrorFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := statusmocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(nil, assert.AnError)
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(assert.AnError)

	svc := NewFileStateService(persistence)
	require.NoError(t, svc.Initialize(context.Background()))

	got, err := svc.GetSyncStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, got.Phase)
}

func TestFileStateService_UpdateSyncStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, persistence := newFileService(t)
	require.NoError(t, svc.Initialize(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	update := &status.SyncStatus{
		Phase:          status.SyncPhaseComplete,
		LastCompletion: &now,
		Counts:         status.Counts{InstitutionsKept: 3, ProgramsKept: 7},
	}
	require.NoError(t, svc.UpdateSyncStatus(ctx, update))

	// the caller's value is not aliased by the cache
	update.Counts.InstitutionsKept = 100

	got, err := svc.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Counts.InstitutionsKept)
	require.NotNil(t, got.LastCompletion)
	assert.True(t, now.Equal(*got.LastCompletion))

	onDisk, err := persistence.LoadStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, onDisk.Counts.ProgramsKept)
}

func TestFileStateService_UpdateStatusAtomically(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newFileService(t)
	require.NoError(t, svc.Initialize(ctx))

	changed, err := svc.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		if s.Phase == status.SyncPhaseSyncing {
			return false
		}
		s.Phase = status.SyncPhaseSyncing
		s.AttemptCount++
		return true
	})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		if s.Phase == status.SyncPhaseSyncing {
			s.Message = "must not be stored"
			return false
		}
		return true
	})
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := svc.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseSyncing, got.Phase)
	assert.Equal(t, 1, got.AttemptCount)
	assert.NotEqual(t, "must not be stored", got.Message)
}

func TestFileStateService_UpdateStatusAtomicallySaveError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := statusmocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(&status.SyncStatus{Phase: status.SyncPhaseComplete}, nil)
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(assert.AnError)

	svc := NewFileStateService(persistence)
	_, err := svc.UpdateStatusAtomically(context.Background(), func(s *status.SyncStatus) bool {
		s.Phase = status.SyncPhaseSyncing
		return true
	})
	require.ErrorIs(t, err, assert.AnError)
}
