package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource attribute keys describing how an instance is deployed
const (
	AttrSourceType   = attribute.Key("accreg.source.type")
	AttrStorageType  = attribute.Key("accreg.storage.type")
	AttrSyncInterval = attribute.Key("accreg.sync.interval")
)

// Deployment describes where an instance reads snapshots from and where it keeps
// records. Every span and metric carries it as resource attributes.
type Deployment struct {
	SourceType   string
	StorageType  string
	SyncInterval time.Duration
}

func (d Deployment) attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if d.SourceType != "" {
		attrs = append(attrs, AttrSourceType.String(d.SourceType))
	}
	if d.StorageType != "" {
		attrs = append(attrs, AttrStorageType.String(d.StorageType))
	}
	if d.SyncInterval > 0 {
		attrs = append(attrs, AttrSyncInterval.String(d.SyncInterval.String()))
	}
	return attrs
}

// NewResource builds the resource shared by the tracer and meter providers
func NewResource(ctx context.Context, cfg *Config, d Deployment) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
	}, d.attributes()...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
