// Package telemetry provides OpenTelemetry instrumentation for the sync server.
// Traces are pushed over OTLP/HTTP; metrics are pushed over OTLP, scraped through
// the Prometheus exporter, or both.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "accreg-sync"

	// DefaultEndpoint is the default OTLP endpoint for telemetry
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the ratio applied to request spans when none is configured
	DefaultSampling = 0.05

	// DefaultPassSampling is the ratio applied to sync pass spans when none is configured
	DefaultPassSampling = 1.0
)

// Config is the telemetry section of the sync server configuration
type Config struct {
	// Enabled turns every provider on or off.
	// When false, no exporter is created and no-op providers are returned.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this instance in traces and metrics.
	// Defaults to "accreg-sync".
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version of the binary
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP/HTTP collector as "host:port".
	// The exporters append /v1/traces and /v1/metrics themselves.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	// Tracing configures span export
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	// Metrics configures metric export
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures span export
type TracingConfig struct {
	// Enabled controls tracing independently of the global switch
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of control API requests traced, between 0.0 and 1.0.
	// Zero means unset and yields DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`

	// PassSampling is the ratio of scheduled sync passes traced, between 0.0 and 1.0.
	// Zero means unset and yields DefaultPassSampling. A pass started through the
	// control API follows the sampling decision of its request.
	PassSampling float64 `yaml:"passSampling,omitempty"`
}

// MetricsConfig configures metric export
type MetricsConfig struct {
	// Enabled controls metrics independently of the global switch
	Enabled bool `yaml:"enabled"`

	// Prometheus exposes metrics for scraping on /metrics of the control listener.
	// When set and no telemetry endpoint is configured, the OTLP push exporter is skipped.
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// tracingEnabled reports whether spans are exported
func (c *Config) tracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

// metricsEnabled reports whether metrics are exported
func (c *Config) metricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// prometheusEnabled reports whether metrics are served for scraping
func (c *Config) prometheusEnabled() bool {
	return c.metricsEnabled() && c.Metrics.Prometheus
}

// pushesMetrics reports whether metrics go to the OTLP endpoint. A scrape-only
// setup leaves Endpoint empty.
func (c *Config) pushesMetrics() bool {
	return c.metricsEnabled() && (!c.Metrics.Prometheus || c.Endpoint != "")
}

// GetSampling returns the request sampling ratio. Zero means unset and yields DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetPassSampling returns the pass sampling ratio. Zero means unset and yields DefaultPassSampling.
func (c *TracingConfig) GetPassSampling() float64 {
	if c.PassSampling == 0.0 {
		return DefaultPassSampling
	}
	return c.PassSampling
}

// Validate validates the telemetry configuration
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks both sampling ratios
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	return errors.Join(
		checkRatio("sampling", c.Sampling),
		checkRatio("passSampling", c.PassSampling),
	)
}

func checkRatio(name string, ratio float64) error {
	if ratio < 0 || ratio > 1.0 {
		return fmt.Errorf("%s must be between 0.0 and 1.0, got %f", name, ratio)
	}
	return nil
}
