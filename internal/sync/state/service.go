// Package state keeps the durable sync status of the scheduler: the phase of the
// current or last pass, its counters and the time the last pass completed.
package state

import (
	"context"

	"github.com/stacklok/accreg-sync/internal/status"
)

//go:generate mockgen -destination=mocks/mock_sync_state_service.go -package=mocks github.com/stacklok/accreg-sync/internal/sync/state SyncStateService

// SyncStateService reads and writes the single sync status record
type SyncStateService interface {
	// Initialize creates the record when missing and resets a status left in
	// Syncing by an interrupted process to Failed. Call once at startup.
	Initialize(ctx context.Context) error

	// GetSyncStatus returns a copy of the current status
	GetSyncStatus(ctx context.Context) (*status.SyncStatus, error)

	// UpdateSyncStatus replaces the stored status
	UpdateSyncStatus(ctx context.Context, syncStatus *status.SyncStatus) error

	// UpdateStatusAtomically loads the status, applies testAndUpdateFn and stores the
	// result when the function reports a change, all as one atomic step. It returns
	// what testAndUpdateFn returned.
	UpdateStatusAtomically(ctx context.Context, testAndUpdateFn func(syncStatus *status.SyncStatus) bool) (bool, error)
}

const (
	messageNoPreviousSync = "No previous sync status found"
	messageInterrupted    = "Previous sync was interrupted"
)

// recoverStatus applies the startup rules to a loaded status and reports whether it changed
func recoverStatus(s *status.SyncStatus) bool {
	switch {
	case s.Phase == "" && s.LastAttempt == nil:
		s.Phase = status.SyncPhaseFailed
		s.Message = messageNoPreviousSync
		return true
	case s.Phase == status.SyncPhaseSyncing:
		s.Phase = status.SyncPhaseFailed
		s.Message = messageInterrupted
		return true
	}
	return false
}
