package admission

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the admission gate. Metrics are
// opt-in: construct once per process and attach with WithMetrics.
type Metrics struct {
	checks        *prometheus.CounterVec
	denials       *prometheus.CounterVec
	storeFailures prometheus.Counter
	checkDuration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		checks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_admission_checks_total",
				Help: "Total number of admission checks performed",
			},
			[]string{"model", "status"},
		),

		denials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_admission_denials_total",
				Help: "Total number of denied admission checks",
			},
			[]string{"model", "reason"},
		),

		storeFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ganymede_admission_store_failures_total",
				Help: "Total number of atomic updates that failed at the store",
			},
		),

		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ganymede_admission_check_duration_seconds",
				Help:    "Duration of admission operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
			},
			[]string{"operation"},
		),
	}
}

// RecordCheck records an admission outcome. Labels are bounded: models
// come from configuration, never from request input that missed lookup.
func (m *Metrics) RecordCheck(model string, status Status) {
	m.checks.WithLabelValues(model, string(status)).Inc()
}

// RecordDenial records a denial with its reason.
func (m *Metrics) RecordDenial(model string, reason string) {
	m.denials.WithLabelValues(model, reason).Inc()
}

// RecordStoreFailure records a failed atomic update.
func (m *Metrics) RecordStoreFailure() {
	m.storeFailures.Inc()
}

// RecordDuration records the duration of one gate operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.checkDuration.WithLabelValues(operation).Observe(d.Seconds())
}
