package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/status"
	"github.com/stacklok/accreg-sync/internal/store"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
	"github.com/stacklok/accreg-sync/internal/sync/state"
	"github.com/stacklok/accreg-sync/internal/telemetry"
)

const (
	// TriggerSchedule labels passes started by the loop
	TriggerSchedule = "schedule"

	// TriggerManual labels passes started by RunOnce
	TriggerManual = "manual"
)

// ErrInvalidInterval is returned by Start for a non-positive interval
var ErrInvalidInterval = errors.New("interval must be positive")

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Coordinator

// Coordinator manages background synchronization scheduling and execution
type Coordinator interface {
	// Start launches the loop, restarting it when interval differs from the running one
	Start(interval time.Duration) error

	// Stop cancels the loop and waits for it to exit. A pass in progress completes first.
	Stop()

	// IsRunning reports whether the loop is running
	IsRunning() bool

	// Interval returns the interval of the running loop, or 0 when stopped
	Interval() time.Duration

	// RunOnce performs a pass now and waits for it
	RunOnce(ctx context.Context) (*pkgsync.Result, error)

	// Status returns the scheduler state together with the durable sync status
	Status(ctx context.Context) (*Status, error)
}

// Status is the scheduler state as reported by the control surface
type Status struct {
	Running  bool
	Interval time.Duration
	Sync     *status.SyncStatus
}

// StatsReader reads the row counts reported as metrics after a pass
type StatsReader interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithClock replaces the real clock
func WithClock(clk clock.WithTicker) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithErrorBackoff sets the pause after a failed pass
func WithErrorBackoff(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.errorBackoff = d
		}
	}
}

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithRegistryMetrics reports the stored row counts read from stats after every successful pass
func WithRegistryMetrics(metrics *telemetry.RegistryMetrics, stats StatsReader) Option {
	return func(c *defaultCoordinator) {
		c.registryMetrics = metrics
		c.stats = stats
	}
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager      pkgsync.Manager
	statusSvc    state.SyncStateService
	clock        clock.WithTicker
	errorBackoff time.Duration

	// passes holds one permit shared by the loop and RunOnce
	passes *semaphore.Weighted

	// lifecycle serializes Start and Stop; mu guards the fields below it
	lifecycle sync.Mutex
	mu        sync.Mutex
	running   bool
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}

	syncMetrics     *telemetry.SyncMetrics
	registryMetrics *telemetry.RegistryMetrics
	stats           StatsReader
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, statusSvc state.SyncStateService, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:      manager,
		statusSvc:    statusSvc,
		clock:        clock.RealClock{},
		errorBackoff: config.DefaultErrorBackoff,
		passes:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start implements Coordinator
func (c *defaultCoordinator) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidInterval, interval)
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.running && c.interval == interval {
		c.mu.Unlock()
		return nil
	}
	if c.running {
		slog.Info("Restarting sync scheduler", "old_interval", c.interval, "interval", interval)
	}
	cancel, done := c.detachLocked()
	c.mu.Unlock()
	waitStopped(cancel, done)

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.interval = interval
	c.running = true
	c.mu.Unlock()

	slog.Info("Starting sync scheduler", "interval", interval, "error_backoff", c.errorBackoff)
	go c.loop(ctx, interval, done)
	return nil
}

// Stop implements Coordinator
func (c *defaultCoordinator) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.running {
		slog.Info("Stopping sync scheduler")
	}
	cancel, done := c.detachLocked()
	c.mu.Unlock()
	waitStopped(cancel, done)
}

// detachLocked marks the scheduler stopped and hands back the running loop's cancel and done
func (c *defaultCoordinator) detachLocked() (context.CancelFunc, chan struct{}) {
	if !c.running {
		return nil, nil
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.interval = 0
	c.cancel = nil
	c.done = nil
	return cancel, done
}

// waitStopped cancels a detached loop and waits for its pass in progress to finish
func waitStopped(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning implements Coordinator
func (c *defaultCoordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Interval implements Coordinator
func (c *defaultCoordinator) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Status implements Coordinator
func (c *defaultCoordinator) Status(ctx context.Context) (*Status, error) {
	syncStatus, err := c.statusSvc.GetSyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync status: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Status{Running: c.running, Interval: c.interval, Sync: syncStatus}, nil
}

// RunOnce implements Coordinator
func (c *defaultCoordinator) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	return c.runPass(ctx, TriggerManual, c.Interval())
}

func (c *defaultCoordinator) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	for {
		wait, err := c.untilDue(ctx, interval)
		switch {
		case err != nil:
			slog.Error("Failed to read last sync completion", "error", err)
			wait = c.errorBackoff
		case wait <= 0:
			if _, err := c.runPass(ctx, TriggerSchedule, interval); err != nil {
				if ctx.Err() != nil {
					return
				}
				wait = c.errorBackoff
			} else {
				wait = interval
			}
		default:
			slog.Debug("Waiting for next sync pass", "wait", wait)
		}

		if !c.sleep(ctx, wait) {
			slog.Info("Sync scheduler stopped")
			return
		}
	}
}

// untilDue returns how long until the next pass is due; zero or less means now
func (c *defaultCoordinator) untilDue(ctx context.Context, interval time.Duration) (time.Duration, error) {
	syncStatus, err := c.statusSvc.GetSyncStatus(ctx)
	if err != nil {
		return 0, err
	}
	if syncStatus == nil || syncStatus.LastCompletion == nil {
		return 0, nil
	}
	wait := interval - c.clock.Since(*syncStatus.LastCompletion)
	// a completion stamped in the future never pushes the next pass past one interval
	return min(wait, interval), nil
}

// sleep waits for d and reports false when ctx was cancelled first
func (c *defaultCoordinator) sleep(ctx context.Context, d time.Duration) bool {
	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C():
		return true
	}
}

// runPass acquires the pass permit and performs one pass. The pass itself runs
// under a context that is not cancelled with ctx.
func (c *defaultCoordinator) runPass(
	ctx context.Context, trigger string, interval time.Duration,
) (*pkgsync.Result, error) {
	if err := c.passes.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.passes.Release(1)

	passCtx := context.WithoutCancel(ctx)
	attempt := c.markSyncing(passCtx)
	slog.InfoContext(passCtx, "Starting sync pass", "trigger", trigger, "attempt", attempt)

	start := c.clock.Now()
	result, syncErr := c.manager.PerformSync(passCtx)
	duration := c.clock.Since(start)

	if syncErr != nil {
		slog.ErrorContext(passCtx, "Sync pass failed",
			"trigger", trigger, "reason", syncErr.Reason, "error", syncErr.Message)
		c.syncMetrics.RecordSyncDuration(passCtx, trigger, duration, false, syncErr.Reason)
		c.recordFailure(passCtx, syncErr)
		return nil, syncErr
	}

	if err := c.recordCompletion(passCtx, result, interval); err != nil {
		c.syncMetrics.RecordSyncDuration(passCtx, trigger, duration, false, pkgsync.ReasonStorageFailed)
		return nil, err
	}

	c.syncMetrics.RecordSyncDuration(passCtx, trigger, duration, true, "")
	c.reportRecords(passCtx)

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	attrs := []any{"trigger", trigger, "duration", duration, "hash", hashPreview}
	if r := result.Reconcile; r != nil {
		attrs = append(attrs,
			"institutions", len(r.KeptInstitutionIDs),
			"programs", len(r.KeptProgramIDs))
	}
	slog.InfoContext(passCtx, "Sync pass completed", attrs...)
	return result, nil
}

func (c *defaultCoordinator) markSyncing(ctx context.Context) int {
	now := c.clock.Now()
	attempt := 0
	_, err := c.statusSvc.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.LastAttempt = &now
		s.AttemptCount++
		attempt = s.AttemptCount
		return true
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to persist syncing status", "error", err)
	}
	return attempt
}

func (c *defaultCoordinator) recordFailure(ctx context.Context, syncErr *pkgsync.Error) {
	_, err := c.statusSvc.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		s.Phase = status.SyncPhaseFailed
		s.Message = syncErr.Message
		return true
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist sync failure", "error", err)
	}
}

// recordCompletion stores the completion time before the loop sleeps
func (c *defaultCoordinator) recordCompletion(
	ctx context.Context, result *pkgsync.Result, interval time.Duration,
) error {
	now := c.clock.Now()
	_, err := c.statusSvc.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		s.Phase = status.SyncPhaseComplete
		s.Message = "Sync completed successfully"
		s.LastCompletion = &now
		s.AttemptCount = 0
		s.SnapshotHash = result.Hash
		if interval > 0 {
			s.SyncInterval = interval.String()
		}
		if r := result.Reconcile; r != nil {
			s.Counts = status.Counts{
				InstitutionsKept: len(r.KeptInstitutionIDs),
				ProgramsKept:     len(r.KeptProgramIDs),
				Rejected:         r.Institutions.Rejected + r.Programs.Rejected,
				Conflicts:        r.Institutions.Conflicts + r.Programs.Conflicts,
				Deleted:          r.Institutions.Deleted + r.Programs.Deleted,
			}
		}
		return true
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist sync completion", "error", err)
		return fmt.Errorf("failed to record sync completion: %w", err)
	}
	return nil
}

func (c *defaultCoordinator) reportRecords(ctx context.Context) {
	if c.registryMetrics == nil || c.stats == nil {
		return
	}
	stats, err := c.stats.Stats(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read record counts", "error", err)
		return
	}
	c.registryMetrics.RecordRecordsTotal(ctx, "institution", "live", stats.Institutions)
	c.registryMetrics.RecordRecordsTotal(ctx, "institution", "deleted", stats.DeletedInstitutions)
	c.registryMetrics.RecordRecordsTotal(ctx, "institution", "custom", stats.CustomInstitutions)
	c.registryMetrics.RecordRecordsTotal(ctx, "program", "live", stats.Programs)
	c.registryMetrics.RecordRecordsTotal(ctx, "program", "deleted", stats.DeletedPrograms)
	c.registryMetrics.RecordRecordsTotal(ctx, "program", "custom", stats.CustomPrograms)
}
