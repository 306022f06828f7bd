package status

import "time"

// SyncPhase represents the current phase of a synchronization pass
type SyncPhase string

const (
	// SyncPhaseSyncing means a pass is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last pass completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last pass failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the durable state of registry synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last pass attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of attempts since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastCompletion is the timestamp of the last successful pass.
	// The scheduler waits for the interval to elapse from this point.
	LastCompletion *time.Time `json:"lastCompletion,omitempty"`

	// SnapshotHash is the sha256 of the last successfully ingested snapshot
	SnapshotHash string `json:"snapshotHash,omitempty"`

	// SyncInterval is the schedule interval in effect when the status was written, e.g. "12h"
	SyncInterval string `json:"syncInterval,omitempty"`

	// Counts summarizes the last successful pass
	Counts Counts `json:"counts"`
}

// Counts are the per-pass reconciliation counters
type Counts struct {
	InstitutionsKept int `json:"institutionsKept"`
	ProgramsKept     int `json:"programsKept"`
	Rejected         int `json:"rejected"`
	Conflicts        int `json:"conflicts"`
	Deleted          int `json:"deleted"`
}

// Copy returns a deep copy of the status
func (s *SyncStatus) Copy() *SyncStatus {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastAttempt != nil {
		t := *s.LastAttempt
		c.LastAttempt = &t
	}
	if s.LastCompletion != nil {
		t := *s.LastCompletion
		c.LastCompletion = &t
	}
	return &c
}
