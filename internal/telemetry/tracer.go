package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// PassSpanPrefix starts the name of every span opened for a sync pass
const PassSpanPrefix = "sync."

// NewTracerProvider creates the tracer provider for cfg, exporting spans over OTLP/HTTP.
// It returns a no-op provider when tracing is off. The caller shuts the returned
// provider down.
func NewTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (trace.TracerProvider, error) {
	if !cfg.tracingEnabled() {
		slog.Info("Tracing disabled, using no-op tracer provider")
		return noop.NewTracerProvider(), nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.GetEndpoint())}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(NewSampler(cfg.Tracing)),
	)

	// W3C trace context lets a caller of the control API join its trace with the pass it starts
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Insecure {
		slog.Warn("Tracing uses an unencrypted OTLP connection; use it only in development")
	}

	slog.Info("Tracing initialized",
		"endpoint", cfg.GetEndpoint(),
		"sampling_ratio", cfg.Tracing.GetSampling(),
		"pass_sampling_ratio", cfg.Tracing.GetPassSampling(),
	)
	return tp, nil
}

// NewSampler samples root spans of a sync pass at the pass ratio and every other
// root span at the request ratio. Child spans follow their parent.
func NewSampler(tc *TracingConfig) sdktrace.Sampler {
	return sdktrace.ParentBased(passSampler{
		pass:    sdktrace.TraceIDRatioBased(tc.GetPassSampling()),
		request: sdktrace.TraceIDRatioBased(tc.GetSampling()),
	})
}

type passSampler struct {
	pass    sdktrace.Sampler
	request sdktrace.Sampler
}

// ShouldSample implements sdktrace.Sampler
func (s passSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if strings.HasPrefix(p.Name, PassSpanPrefix) {
		return s.pass.ShouldSample(p)
	}
	return s.request.ShouldSample(p)
}

// Description implements sdktrace.Sampler
func (s passSampler) Description() string {
	return fmt.Sprintf("PassSampler{pass:%s,request:%s}", s.pass.Description(), s.request.Description())
}
