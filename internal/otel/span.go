// Package otel provides OpenTelemetry span helpers shared by the store, the
// reconciler and the sync manager.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used across the application so traces name things consistently
const (
	AttrRecordKind    = attribute.Key("record.kind")
	AttrRecordID      = attribute.Key("record.id")
	AttrDeletionPath  = attribute.Key("deletion.from_registry")
	AttrLookupName    = attribute.Key("lookup.name")
	AttrResultCount   = attribute.Key("result.count")
	AttrSourceType    = attribute.Key("source.type")
	AttrStoreType     = attribute.Key("store.type")
	AttrSnapshotHash  = attribute.Key("snapshot.hash")
	AttrSyncTrigger   = attribute.Key("sync.trigger")
	AttrFailureReason = attribute.Key("sync.failure_reason")
)

// StartSpan starts a span when tracer is set and otherwise returns the span
// already in ctx, which is a no-op span when there is none
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed. The status
// description stays generic; the error itself goes to the span events.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// EndSpan records *errp, if any, and ends span. Use it deferred with a named
// error result.
func EndSpan(span trace.Span, errp *error) {
	if errp != nil {
		RecordError(span, *errp)
	}
	span.End()
}
