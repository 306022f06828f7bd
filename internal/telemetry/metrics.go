package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the name used for the stored registry metrics meter
	RegistryMetricsMeterName = "github.com/stacklok/accreg-sync/registry"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/accreg-sync/sync"

	// ReconcileMetricsMeterName is the name used for the reconciler metrics meter
	ReconcileMetricsMeterName = "github.com/stacklok/accreg-sync/reconcile"
)

// RegistryMetrics holds the OpenTelemetry instruments for the stored row counts
type RegistryMetrics struct {
	recordsTotal metric.Int64Gauge
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	recordsTotal, err := meter.Int64Gauge(
		"accreg_records_total",
		metric.WithDescription("Number of stored records by kind and state"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		recordsTotal: recordsTotal,
	}, nil
}

// RecordRecordsTotal records the number of stored records of a kind in the given state
// ("live", "deleted" or "custom")
func (m *RegistryMetrics) RecordRecordsTotal(ctx context.Context, kind, state string, count int64) {
	if m == nil || m.recordsTotal == nil {
		return
	}

	m.recordsTotal.Record(ctx, count, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("state", state),
	))
}

// SyncMetrics holds the OpenTelemetry instruments for sync pass metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	passesTotal  metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"accreg_sync_duration_seconds",
		metric.WithDescription("Duration of sync passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800),
	)
	if err != nil {
		return nil, err
	}

	passesTotal, err := meter.Int64Counter(
		"accreg_sync_passes_total",
		metric.WithDescription("Total number of sync passes by trigger and outcome"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		passesTotal:  passesTotal,
	}, nil
}

// RecordSyncDuration records the duration and outcome of a sync pass.
// trigger is "schedule" or "manual"; reason is empty on success.
func (m *SyncMetrics) RecordSyncDuration(
	ctx context.Context, trigger string, duration time.Duration, success bool, reason string,
) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("trigger", trigger),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.passesTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("reason", reason))...))
}

// ReconcileMetrics holds the OpenTelemetry instruments for per-record reconciliation outcomes
type ReconcileMetrics struct {
	recordsTotal metric.Int64Counter
}

// NewReconcileMetrics creates a new ReconcileMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewReconcileMetrics(provider metric.MeterProvider) (*ReconcileMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ReconcileMetricsMeterName)

	recordsTotal, err := meter.Int64Counter(
		"accreg_reconcile_records_total",
		metric.WithDescription("Records processed by the reconciler by kind and outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &ReconcileMetrics{recordsTotal: recordsTotal}, nil
}

// RecordOutcome adds n records of kind with the given outcome
// ("added", "updated", "retained", "rejected", "conflict", "deleted")
func (m *ReconcileMetrics) RecordOutcome(ctx context.Context, kind, outcome string, n int) {
	if m == nil || m.recordsTotal == nil || n == 0 {
		return
	}

	m.recordsTotal.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}
