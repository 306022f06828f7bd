// Package schedule exposes the sync scheduler over HTTP: start, stop, status and
// an immediate pass.
package schedule

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/accreg-sync/internal/api/common"
	"github.com/stacklok/accreg-sync/internal/status"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
	"github.com/stacklok/accreg-sync/internal/sync/reconcile"
)

// maxIntervalSeconds is the largest interval that fits a time.Duration
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

// StartRequest is the body of POST /schedule/start. A missing or zero interval
// uses the configured default.
type StartRequest struct {
	IntervalSeconds int64 `json:"interval_seconds"`
}

// StatusResponse describes the scheduler and the last pass
type StatusResponse struct {
	Running         bool             `json:"running"`
	IntervalSeconds int64            `json:"interval_seconds"`
	Phase           status.SyncPhase `json:"phase,omitempty"`
	Message         string           `json:"message,omitempty"`
	LastAttempt     *time.Time       `json:"last_attempt,omitempty"`
	LastCompletion  *time.Time       `json:"last_completion,omitempty"`
	AttemptCount    int              `json:"attempt_count"`
	SnapshotHash    string           `json:"snapshot_hash,omitempty"`
	Counts          status.Counts    `json:"counts"`
}

// RunResponse is the body of a successful POST /schedule/run
type RunResponse struct {
	Hash         string             `json:"hash"`
	Origin       string             `json:"origin"`
	DurationMS   int64              `json:"duration_ms"`
	Institutions reconcile.Counters `json:"institutions"`
	Programs     reconcile.Counters `json:"programs"`
}

// Routes serves the schedule endpoints
type Routes struct {
	coordinator     coordinator.Coordinator
	defaultInterval time.Duration
}

// Router creates the schedule router. defaultInterval is used when a start
// request names no interval.
func Router(c coordinator.Coordinator, defaultInterval time.Duration) http.Handler {
	routes := &Routes{coordinator: c, defaultInterval: defaultInterval}

	r := chi.NewRouter()
	r.Post("/start", routes.start)
	r.Post("/stop", routes.stop)
	r.Get("/status", routes.status)
	r.Post("/run", routes.run)
	return r
}

// start handles POST /schedule/start
func (rr *Routes) start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := common.DecodeJSONBody(r, &req, true); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.IntervalSeconds < 0 {
		common.WriteErrorResponse(w, "interval_seconds must be positive", http.StatusBadRequest)
		return
	}
	if req.IntervalSeconds > maxIntervalSeconds {
		common.WriteErrorResponse(w, "interval_seconds is too large", http.StatusBadRequest)
		return
	}

	interval := rr.defaultInterval
	if req.IntervalSeconds > 0 {
		interval = time.Duration(req.IntervalSeconds) * time.Second
	}

	if err := rr.coordinator.Start(interval); err != nil {
		if errors.Is(err, coordinator.ErrInvalidInterval) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		common.WriteServiceError(w, r, err)
		return
	}

	rr.writeStatus(w, r, http.StatusAccepted)
}

// stop handles POST /schedule/stop
func (rr *Routes) stop(w http.ResponseWriter, r *http.Request) {
	rr.coordinator.Stop()
	rr.writeStatus(w, r, http.StatusOK)
}

// status handles GET /schedule/status
func (rr *Routes) status(w http.ResponseWriter, r *http.Request) {
	rr.writeStatus(w, r, http.StatusOK)
}

// run handles POST /schedule/run. The request waits for the whole pass.
func (rr *Routes) run(w http.ResponseWriter, r *http.Request) {
	result, err := rr.coordinator.RunOnce(r.Context())
	if err != nil {
		var syncErr *pkgsync.Error
		switch {
		case errors.As(err, &syncErr):
			common.WriteErrorResponse(w, syncErr.Message, http.StatusBadGateway)
		case errors.Is(err, r.Context().Err()):
			slog.WarnContext(r.Context(), "Manual sync abandoned while waiting for a running pass")
			common.WriteErrorResponse(w, "a sync pass is already running", http.StatusServiceUnavailable)
		default:
			common.WriteServiceError(w, r, err)
		}
		return
	}

	resp := RunResponse{
		Hash:       result.Hash,
		Origin:     result.Origin,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Reconcile != nil {
		resp.Institutions = result.Reconcile.Institutions
		resp.Programs = result.Reconcile.Programs
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

func (rr *Routes) writeStatus(w http.ResponseWriter, r *http.Request, code int) {
	st, err := rr.coordinator.Status(r.Context())
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	resp := StatusResponse{
		Running:         st.Running,
		IntervalSeconds: int64(st.Interval / time.Second),
	}
	if s := st.Sync; s != nil {
		resp.Phase = s.Phase
		resp.Message = s.Message
		resp.LastAttempt = s.LastAttempt
		resp.LastCompletion = s.LastCompletion
		resp.AttemptCount = s.AttemptCount
		resp.SnapshotHash = s.SnapshotHash
		resp.Counts = s.Counts
	}
	common.WriteJSONResponse(w, resp, code)
}
