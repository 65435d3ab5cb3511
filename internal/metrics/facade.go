package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FacadeMetrics collects per-operation metrics for the client facade.
// A nil *FacadeMetrics is valid and records nothing, so callers never
// branch on whether metrics are enabled.
type FacadeMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   *prometheus.GaugeVec
	bytes      *prometheus.CounterVec
}

// NewFacadeMetrics creates a Prometheus-backed facade metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFacadeMetrics() *FacadeMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &FacadeMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultbox_operations_total",
				Help: "Total facade operations by operation name and outcome",
			},
			[]string{"operation", "outcome"}, // outcome: "ok" or the ErrorCode name
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultbox_operation_duration_seconds",
				Help:    "Facade operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		inFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vaultbox_operations_in_flight",
				Help: "Facade operations currently being processed",
			},
			[]string{"operation"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultbox_bytes_total",
				Help: "Plaintext bytes moved through the facade by direction",
			},
			[]string{"operation", "direction"}, // direction: "in" or "out"
		),
	}
}

// RecordOperation records a completed facade operation. outcome is "ok"
// for success or the internal ErrorCode name for a failure.
func (m *FacadeMetrics) RecordOperation(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOperationStart increments the in-flight gauge for operation.
func (m *FacadeMetrics) RecordOperationStart(operation string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(operation).Inc()
}

// RecordOperationEnd decrements the in-flight gauge for operation.
func (m *FacadeMetrics) RecordOperationEnd(operation string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(operation).Dec()
}

// RecordBytes records plaintext bytes moved through the facade.
// direction is "in" (upload, append) or "out" (download).
func (m *FacadeMetrics) RecordBytes(operation, direction string, n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(operation, direction).Add(float64(n))
}
