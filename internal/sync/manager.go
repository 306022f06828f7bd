package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/otel"
	"github.com/stacklok/accreg-sync/internal/snapshot"
	"github.com/stacklok/accreg-sync/internal/sources"
	"github.com/stacklok/accreg-sync/internal/sync/reconcile"
)

// TracerName is the name of the tracer used for sync spans
const TracerName = "github.com/stacklok/accreg-sync/sync"

// Failure reasons of a pass
const (
	ReasonHandlerCreationFailed = "HandlerCreationFailed"
	ReasonValidationFailed      = "ValidationFailed"
	ReasonFetchFailed           = "FetchFailed"
	ReasonParseFailed           = "ParseFailed"
	ReasonStorageFailed         = "StorageFailed"
)

// Result contains the result of a successful pass
type Result struct {
	// Hash is the sha256 of the ingested snapshot
	Hash string

	// Origin is where the snapshot came from
	Origin string

	// ParseStats describes what the parser skipped
	ParseStats snapshot.Stats

	// Reconcile holds the kept ids and counters
	Reconcile *reconcile.Result

	Duration time.Duration
}

// Error represents a failed pass with the reason it failed
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager performs synchronization passes
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/accreg-sync/internal/sync Manager
type Manager interface {
	// PerformSync fetches, parses and reconciles one snapshot
	PerformSync(ctx context.Context) (*Result, *Error)
}

// Option configures the default manager
type Option func(*defaultSyncManager)

// WithTracer sets the OpenTelemetry tracer. Without it no spans are created.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	source         *config.SourceConfig
	handlerFactory sources.SourceHandlerFactory
	parser         snapshot.Parser
	reconciler     reconcile.Reconciler
	tracer         trace.Tracer
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(
	source *config.SourceConfig,
	handlerFactory sources.SourceHandlerFactory,
	parser snapshot.Parser,
	reconciler reconcile.Reconciler,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		source:         source,
		handlerFactory: handlerFactory,
		parser:         parser,
		reconciler:     reconciler,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync performs the complete pass
func (m *defaultSyncManager) PerformSync(ctx context.Context) (_ *Result, syncErr *Error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync", trace.WithAttributes(
		otel.AttrSourceType.String(m.source.Type),
	))
	defer func() {
		if syncErr != nil {
			span.SetAttributes(otel.AttrFailureReason.String(syncErr.Reason))
			otel.RecordError(span, syncErr)
		}
		span.End()
	}()

	start := time.Now()

	fetched, syncErr := m.fetch(ctx)
	if syncErr != nil {
		return nil, syncErr
	}
	span.SetAttributes(otel.AttrSnapshotHash.String(fetched.Hash))

	snap, err := m.parser.Parse(ctx, fetched.Path)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot parsing failed", "path", fetched.Path, "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Parse failed: %v", err),
			Reason:  ReasonParseFailed,
		}
	}
	slog.InfoContext(ctx, "Snapshot parsed",
		"institutions", len(snap.Institutions),
		"programs", len(snap.Programs),
		"skipped_certificates", snap.Stats.SkippedCertificates,
		"skipped_supplements", snap.Stats.SkippedSupplements)

	reconciled, err := m.reconciler.Reconcile(ctx, snap)
	if err != nil {
		slog.ErrorContext(ctx, "Reconciliation failed", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Storage failed: %v", err),
			Reason:  ReasonStorageFailed,
		}
	}

	return &Result{
		Hash:       fetched.Hash,
		Origin:     fetched.Origin,
		ParseStats: snap.Stats,
		Reconcile:  reconciled,
		Duration:   time.Since(start),
	}, nil
}

// fetch creates the source handler, validates the configuration and fetches the snapshot
func (m *defaultSyncManager) fetch(ctx context.Context) (*sources.FetchResult, *Error) {
	handler, err := m.handlerFactory.CreateHandler(m.source.Type)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create source handler", "type", m.source.Type, "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Failed to create source handler: %v", err),
			Reason:  ReasonHandlerCreationFailed,
		}
	}

	if err := handler.Validate(m.source); err != nil {
		slog.ErrorContext(ctx, "Source validation failed", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Source validation failed: %v", err),
			Reason:  ReasonValidationFailed,
		}
	}

	fetched, err := handler.Fetch(ctx, m.source)
	if err != nil {
		slog.ErrorContext(ctx, "Fetch operation failed", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Fetch failed: %v", err),
			Reason:  ReasonFetchFailed,
		}
	}

	slog.InfoContext(ctx, "Snapshot fetched from source",
		"origin", fetched.Origin,
		"bytes", fetched.Size,
		"hash", fetched.Hash)
	return fetched, nil
}
