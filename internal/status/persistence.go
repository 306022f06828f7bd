// Package status provides sync status tracking and file persistence.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	lockSuffix     = ".lock"
	lockRetryDelay = 50 * time.Millisecond
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status to persistent storage
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage.
	// Returns an empty SyncStatus if nothing was saved yet (first run).
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence with a JSON file guarded by an flock
type fileStatusPersistence struct {
	path string
}

// NewFileStatusPersistence creates a new file-based status persistence writing to path
func NewFileStatusPersistence(path string) StatusPersistence {
	return &fileStatusPersistence{path: path}
}

// SaveStatus writes the status to a temporary file and renames it over the status file
func (f *fileStatusPersistence) SaveStatus(ctx context.Context, status *SyncStatus) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	unlock, err := f.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// LoadStatus reads the status file, returning an empty status if it does not exist
func (f *fileStatusPersistence) LoadStatus(ctx context.Context) (*SyncStatus, error) {
	if _, err := os.Stat(filepath.Dir(f.path)); errors.Is(err, os.ErrNotExist) {
		return &SyncStatus{}, nil
	}

	unlock, err := f.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}

	return &status, nil
}

// lock takes the sidecar lock file; exclusive for writers, shared for readers
func (f *fileStatusPersistence) lock(ctx context.Context, exclusive bool) (func(), error) {
	fl := flock.New(f.path + lockSuffix)

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock status file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock status file: %s", fl.Path())
	}

	return func() {
		_ = fl.Unlock()
	}, nil
}
