package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/accreg-sync/internal/db/pgtypes"
	"github.com/stacklok/accreg-sync/internal/db/sqlc"
	"github.com/stacklok/accreg-sync/internal/status"
)

// ErrStateNotInitialized is returned when the sync_state row does not exist yet
var ErrStateNotInitialized = errors.New("sync state is not initialized")

type dbStateService struct {
	pool *pgxpool.Pool
}

// NewDBStateService creates a state service stored in the sync_state table
func NewDBStateService(pool *pgxpool.Pool) SyncStateService {
	return &dbStateService{pool: pool}
}

func (d *dbStateService) Initialize(ctx context.Context) error {
	_, err := d.UpdateStatusAtomically(ctx, func(s *status.SyncStatus) bool {
		changed := recoverStatus(s)
		if changed && s.Message == messageInterrupted {
			slog.Warn("Previous sync was interrupted, resetting status to Failed")
		}
		return changed
	})
	return err
}

func (d *dbStateService) GetSyncStatus(ctx context.Context) (*status.SyncStatus, error) {
	row, err := sqlc.New(d.pool).GetSyncState(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return &status.SyncStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}
	return rowToStatus(row), nil
}

func (d *dbStateService) UpdateSyncStatus(ctx context.Context, syncStatus *status.SyncStatus) error {
	if err := sqlc.New(d.pool).UpsertSyncState(ctx, statusToParams(syncStatus)); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	return nil
}

func (d *dbStateService) UpdateStatusAtomically(
	ctx context.Context,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	// the row must exist for FOR UPDATE to lock anything
	if err := queries.InitSyncState(ctx, sqlc.InitSyncStateParams{}); err != nil {
		return false, fmt.Errorf("failed to create sync state: %w", err)
	}

	row, err := queries.GetSyncStateForUpdate(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrStateNotInitialized
	}
	if err != nil {
		return false, err
	}

	syncStatus := rowToStatus(row)
	shouldUpdate := testAndUpdateFn(syncStatus)
	if shouldUpdate {
		if err := queries.UpsertSyncState(ctx, statusToParams(syncStatus)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return shouldUpdate, nil
}

func rowToStatus(row sqlc.SyncState) *status.SyncStatus {
	s := &status.SyncStatus{
		Phase:          status.SyncPhase(row.Phase),
		Message:        row.Message,
		LastAttempt:    row.LastAttempt,
		LastCompletion: row.LastCompletion,
		AttemptCount:   int(row.AttemptCount),
		SnapshotHash:   row.SnapshotHash,
		Counts: status.Counts{
			InstitutionsKept: int(row.InstitutionsKept),
			ProgramsKept:     int(row.ProgramsKept),
			Rejected:         int(row.Rejected),
			Conflicts:        int(row.Conflicts),
			Deleted:          int(row.Deleted),
		},
	}
	if row.SyncInterval.Valid {
		s.SyncInterval = row.SyncInterval.Duration.String()
	}
	return s
}

func statusToParams(s *status.SyncStatus) sqlc.UpsertSyncStateParams {
	var interval pgtypes.Interval
	if d, err := time.ParseDuration(s.SyncInterval); err == nil && d > 0 {
		interval = pgtypes.IntervalOf(d)
	}
	// #nosec G115 -- counters are bounded by the registry size
	return sqlc.UpsertSyncStateParams{
		Phase:            string(s.Phase),
		Message:          s.Message,
		SyncInterval:     interval,
		LastAttempt:      s.LastAttempt,
		LastCompletion:   s.LastCompletion,
		AttemptCount:     int32(s.AttemptCount),
		SnapshotHash:     s.SnapshotHash,
		InstitutionsKept: int32(s.Counts.InstitutionsKept),
		ProgramsKept:     int32(s.Counts.ProgramsKept),
		Rejected:         int32(s.Counts.Rejected),
		Conflicts:        int32(s.Counts.Conflicts),
		Deleted:          int32(s.Counts.Deleted),
	}
}
