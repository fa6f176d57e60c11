// Package prom implements ratelimit.Metrics on top of Prometheus client
// instruments.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ratekit/ratekit/ratelimit"
)

// Adapter implements ratelimit.Metrics and exports Prometheus counters,
// a gauge, and a histogram. Safe for concurrent use; all Prometheus
// metric types are goroutine-safe.
type Adapter struct {
	allowed     prometheus.Counter
	denied      prometheus.Counter
	entries     prometheus.Gauge
	resetWaitMS prometheus.Histogram
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		allowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "allowed_total",
			Help:        "Requests admitted by the limiter",
			ConstLabels: constLabels,
		}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "denied_total",
			Help:        "Requests rejected by the limiter",
			ConstLabels: constLabels,
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "entries",
			Help:        "Number of resident per-key bucket entries",
			ConstLabels: constLabels,
		}),
		resetWaitMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "reset_wait_ms",
			Help:        "Milliseconds until a denied key's next admission, as reported to the caller",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 16),
		}),
	}
	reg.MustRegister(a.allowed, a.denied, a.entries, a.resetWaitMS)
	return a
}

// Allowed increments the admitted-requests counter.
func (a *Adapter) Allowed() { a.allowed.Inc() }

// Denied increments the rejected-requests counter and observes the
// reported wait time in the reset_wait_ms histogram.
func (a *Adapter) Denied(resetMS uint64) {
	a.denied.Inc()
	a.resetWaitMS.Observe(float64(resetMS))
}

// Size updates the resident-entries gauge.
func (a *Adapter) Size(entries int) {
	a.entries.Set(float64(entries))
}

// Compile-time check: ensure Adapter implements ratelimit.Metrics.
var _ ratelimit.Metrics = (*Adapter)(nil)
