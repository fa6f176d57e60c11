// Package otelmetrics implements ratelimit.Metrics using OpenTelemetry
// instruments, for export to any OTEL-compatible backend (Prometheus,
// Jaeger, DataDog, etc.) via the standard SDK pipeline.
//
// # Usage
//
//	import (
//	    "github.com/ratekit/ratekit/ratelimit"
//	    "github.com/ratekit/ratekit/metrics/otelmetrics"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, err := otelmetrics.NewCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	limiter := ratelimit.New(ratelimit.Config{Metrics: collector}, nil)
//
// # Metrics exposed
//
//   - ratekit_allowed_total: counter of admitted requests
//   - ratekit_denied_total: counter of rejected requests
//   - ratekit_reset_wait_ms: histogram of reported wait times on denial
//   - ratekit_entries: gauge of resident per-key bucket entries
package otelmetrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"

	"github.com/ratekit/ratekit/ratelimit"
)

// Collector implements ratelimit.Metrics using OpenTelemetry.
//
// Thread-safety: safe for concurrent use. The underlying OTEL
// instruments are thread-safe.
type Collector struct {
	allowed     metric.Int64Counter
	denied      metric.Int64Counter
	resetWaitMS metric.Int64Histogram
	entries     metric.Int64Gauge
}

// Options configures Collector construction.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/ratekit/ratekit".
	MeterName string
}

// Option is a functional option for configuring Collector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple limiter instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewCollector creates a new OpenTelemetry metrics collector.
//
// provider must not be nil. Returns an error if instrument creation
// fails.
func NewCollector(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/ratekit/ratekit"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &Collector{}

	var err error
	c.allowed, err = meter.Int64Counter(
		"ratekit_allowed_total",
		metric.WithDescription("Total number of requests admitted by the limiter"),
	)
	if err != nil {
		return nil, err
	}

	c.denied, err = meter.Int64Counter(
		"ratekit_denied_total",
		metric.WithDescription("Total number of requests rejected by the limiter"),
	)
	if err != nil {
		return nil, err
	}

	c.resetWaitMS, err = meter.Int64Histogram(
		"ratekit_reset_wait_ms",
		metric.WithDescription("Milliseconds until a denied key's next admission"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	c.entries, err = meter.Int64Gauge(
		"ratekit_entries",
		metric.WithDescription("Number of resident per-key bucket entries"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Allowed records an admitted request.
func (c *Collector) Allowed() {
	c.allowed.Add(context.Background(), 1)
}

// Denied records a rejected request and its reported reset wait.
func (c *Collector) Denied(resetMS uint64) {
	ctx := context.Background()
	c.denied.Add(ctx, 1)
	c.resetWaitMS.Record(ctx, int64(resetMS))
}

// Size reports the current number of resident entries.
func (c *Collector) Size(entries int) {
	c.entries.Record(context.Background(), int64(entries))
}

// Compile-time interface check.
var _ ratelimit.Metrics = (*Collector)(nil)
