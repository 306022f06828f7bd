package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/accreg-sync/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	mu     sync.RWMutex
	cached *status.SyncStatus
}

// NewFileStateService creates a state service persisting the status through statusPersistence.
// It assumes a single process owns the status file.
func NewFileStateService(statusPersistence status.StatusPersistence) SyncStateService {
	return &fileStateService{statusPersistence: statusPersistence}
}

func (f *fileStateService) Initialize(ctx context.Context) error {
	syncStatus, err := f.statusPersistence.LoadStatus(ctx)
	if err != nil {
		slog.Warn("Failed to load sync status, starting from defaults", "error", err)
		syncStatus = &status.SyncStatus{}
	}

	if recoverStatus(syncStatus) {
		if syncStatus.Message == messageInterrupted {
			slog.Warn("Previous sync was interrupted, resetting status to Failed")
		}
		if err := f.statusPersistence.SaveStatus(ctx, syncStatus); err != nil {
			slog.Warn("Failed to persist initial sync status", "error", err)
		}
	}

	if syncStatus.LastCompletion != nil {
		slog.Info("Loaded sync status",
			"phase", syncStatus.Phase,
			"last_completion", syncStatus.LastCompletion.Format(time.RFC3339))
	} else {
		slog.Info("Loaded sync status, no completed pass yet", "phase", syncStatus.Phase)
	}

	f.mu.Lock()
	f.cached = syncStatus
	f.mu.Unlock()
	return nil
}

func (f *fileStateService) GetSyncStatus(ctx context.Context) (*status.SyncStatus, error) {
	f.mu.RLock()
	cached := f.cached
	f.mu.RUnlock()

	if cached == nil {
		return f.statusPersistence.LoadStatus(ctx)
	}
	return cached.Copy(), nil
}

func (f *fileStateService) UpdateSyncStatus(ctx context.Context, syncStatus *status.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.statusPersistence.SaveStatus(ctx, syncStatus); err != nil {
		return err
	}
	f.cached = syncStatus.Copy()
	return nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.cached
	if current == nil {
		loaded, err := f.statusPersistence.LoadStatus(ctx)
		if err != nil {
			return false, err
		}
		current = loaded
	}

	working := current.Copy()
	if !testAndUpdateFn(working) {
		return false, nil
	}
	if err := f.statusPersistence.SaveStatus(ctx, working); err != nil {
		return false, err
	}
	f.cached = working
	return true, nil
}
