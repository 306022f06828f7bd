package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 0)
	assert.InDelta(t, DefaultPassSampling, (&TracingConfig{}).GetPassSampling(), 0)

	cfg = &Config{ServiceName: "svc", ServiceVersion: "1.2.3", Endpoint: "otel:4318"}
	assert.Equal(t, "svc", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
	assert.Equal(t, "otel:4318", cfg.GetEndpoint())
	assert.InDelta(t, 0.25, (&TracingConfig{PassSampling: 0.25}).GetPassSampling(), 0)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil_config", config: nil},
		{name: "disabled_ignores_bad_sampling", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}}},
		{name: "valid_sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.5}}},
		{name: "disabled_tracing_ignores_sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Sampling: -1}}},
		{
			name:    "sampling_above_one",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name:    "negative_sampling",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name:    "pass_sampling_above_one",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, PassSampling: 2}},
			wantErr: "tracing: passSampling must be between 0.0 and 1.0",
		},
		{name: "metrics_prometheus", config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	res := resource.Empty()

	tp, err := NewTracerProvider(ctx, nil, res)
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tp)

	tp, err = NewTracerProvider(ctx, &Config{Enabled: true, Tracing: &TracingConfig{Enabled: false}}, res)
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tp)

	tp, err = NewTracerProvider(ctx, &Config{Tracing: &TracingConfig{Enabled: true}}, res)
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tp, "the global switch wins")

	tp, err = NewTracerProvider(ctx, &Config{
		Enabled:  true,
		Endpoint: "localhost:4318",
		Insecure: true,
		Tracing:  &TracingConfig{Enabled: true, Sampling: 1},
	}, res)
	require.NoError(t, err)
	sdkTP, ok := tp.(*sdktrace.TracerProvider)
	require.True(t, ok, "expected SDK tracer provider")
	_ = sdkTP.Shutdown(ctx)
}

func TestNewSampler(t *testing.T) {
	t.Parallel()

	// the highest trace ID is only kept at a ratio of one
	var highID trace.TraceID
	for i := range highID {
		highID[i] = 0xff
	}

	tests := []struct {
		name     string
		config   *TracingConfig
		spanName string
		want     sdktrace.SamplingDecision
	}{
		{
			name:     "scheduled pass is kept by default",
			config:   &TracingConfig{Enabled: true, Sampling: 0.5},
			spanName: "sync.PerformSync",
			want:     sdktrace.RecordAndSample,
		},
		{
			name:     "request follows the request ratio",
			config:   &TracingConfig{Enabled: true, Sampling: 0.5},
			spanName: "GET /schedule/status",
			want:     sdktrace.Drop,
		},
		{
			name:     "pass follows a configured pass ratio",
			config:   &TracingConfig{Enabled: true, Sampling: 1, PassSampling: 0.5},
			spanName: "sync.PerformSync",
			want:     sdktrace.Drop,
		},
		{
			name:     "request is kept at a ratio of one",
			config:   &TracingConfig{Enabled: true, Sampling: 1},
			spanName: "POST /schedule/run",
			want:     sdktrace.RecordAndSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NewSampler(tt.config).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       highID,
				Name:          tt.spanName,
			})
			assert.Equal(t, tt.want, got.Decision)
		})
	}
}

func TestNewSampler_ChildFollowsParent(t *testing.T) {
	t.Parallel()

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{1},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	got := NewSampler(&TracingConfig{Enabled: true}).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: ctx,
		TraceID:       parent.TraceID(),
		Name:          "sync.PerformSync",
	})
	assert.Equal(t, sdktrace.Drop, got.Decision, "a pass under an unsampled request is not traced")
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := NewResource(context.Background(), &Config{ServiceVersion: "1.2.3"}, Deployment{
		SourceType:   "s3",
		StorageType:  "postgres",
		SyncInterval: 12 * time.Hour,
	})
	require.NoError(t, err)

	got := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, DefaultServiceName, got[semconv.ServiceNameKey])
	assert.Equal(t, "1.2.3", got[semconv.ServiceVersionKey])
	assert.Equal(t, "s3", got[AttrSourceType])
	assert.Equal(t, "postgres", got[AttrStorageType])
	assert.Equal(t, "12h0m0s", got[AttrSyncInterval])

	res, err = NewResource(context.Background(), &Config{}, Deployment{})
	require.NoError(t, err)
	_, ok := res.Set().Value(AttrSourceType)
	assert.False(t, ok, "an unknown source is left out")
}

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		config     *Config
		expectNoOp bool
	}{
		{name: "no_config", expectNoOp: true},
		{name: "disabled", config: &Config{Enabled: true, Metrics: &MetricsConfig{}}, expectNoOp: true},
		{
			name:   "otlp_only",
			config: &Config{Enabled: true, Insecure: true, Metrics: &MetricsConfig{Enabled: true}},
		},
		{
			name:   "prometheus_only",
			config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true}},
		},
		{
			name: "prometheus_and_otlp",
			config: &Config{
				Enabled:  true,
				Endpoint: "otel:4318",
				Metrics:  &MetricsConfig{Enabled: true, Prometheus: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			mp, err := NewMeterProvider(ctx, tt.config, resource.Empty(), nil)
			require.NoError(t, err)

			if tt.expectNoOp {
				assert.IsType(t, noop.MeterProvider{}, mp)
				return
			}
			sdkMP, ok := mp.(*sdkmetric.MeterProvider)
			require.True(t, ok, "expected SDK meter provider")
			// no collector runs in tests, so the final flush may fail
			_ = sdkMP.Shutdown(ctx)
		})
	}
}

func TestConfig_PushesMetrics(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true}}).pushesMetrics())
	assert.False(t, (&Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true}}).pushesMetrics())
	assert.True(t, (&Config{
		Enabled:  true,
		Endpoint: "otel:4318",
		Metrics:  &MetricsConfig{Enabled: true, Prometheus: true},
	}).pushesMetrics())
	assert.False(t, (*Config)(nil).pushesMetrics())
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background(), WithTelemetryConfig(&Config{Enabled: false}))
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
	assert.IsType(t, noop.MeterProvider{}, tel.MeterProvider())
	assert.Nil(t, tel.PrometheusHandler())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 2},
	}))
	require.ErrorContains(t, err, "invalid telemetry configuration")
}

func TestNew_PrometheusScrape(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tel, err := New(ctx,
		WithTelemetryConfig(&Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, Prometheus: true},
		}),
		WithDeployment(Deployment{SourceType: "file", StorageType: "sqlite"}),
	)
	require.NoError(t, err)
	defer func() {
		_ = tel.Shutdown(ctx)
	}()

	handler := tel.PrometheusHandler()
	require.NotNil(t, handler)

	syncMetrics, err := NewSyncMetrics(tel.MeterProvider())
	require.NoError(t, err)
	syncMetrics.RecordSyncDuration(ctx, "manual", 0, true, "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "accreg_sync_passes")
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), `accreg_source_type="file"`)
}
