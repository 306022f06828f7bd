package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileName  = ".lock"
	lockRetryWait = 500 * time.Millisecond
)

// Workspace is the download directory of a source. Handlers hold its lock while
// they replace its content so two processes sharing the directory never observe
// a half extracted snapshot.
type Workspace struct {
	dir  string
	lock *flock.Flock
}

// NewWorkspace creates the directory if needed
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}
	return &Workspace{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Lock blocks until the exclusive lock is held or ctx is done
func (w *Workspace) Lock(ctx context.Context) (func(), error) {
	ok, err := w.lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", w.dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s", w.dir)
	}
	return func() {
		_ = w.lock.Unlock()
	}, nil
}

// TempFile creates a file for an in-progress download. Callers rename it with
// Commit once the transfer is complete.
func (w *Workspace) TempFile(name string) (*os.File, error) {
	return os.CreateTemp(w.dir, name+".*.part")
}

// Commit moves a finished download to name inside the workspace
func (w *Workspace) Commit(tmp, name string) (string, error) {
	target := filepath.Join(w.dir, name)
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}
	return target, nil
}
