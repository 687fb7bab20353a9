// Package metrics exposes Prometheus collectors for the engine's writes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
)

// Outcomes recorded on Operations.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conference_operations_total",
			Help: "Core operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conference_rejections_total",
			Help: "Rejected operations by error code",
		},
		[]string{"operation", "code"},
	)

	ConsistencyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conference_consistency_failures_total",
			Help: "Broken stored invariants detected at runtime",
		},
		[]string{"code"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conference_operation_duration_seconds",
			Help:    "Latency of core operations including the transaction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conference_retries_total",
			Help: "Caller-side retries after transient store conflicts",
		},
		[]string{"route"},
	)
)

// Observe records the outcome and latency of one operation.
func Observe(operation string, started time.Time, err error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())

	if err == nil {
		Operations.WithLabelValues(operation, OutcomeOK).Inc()
		return
	}
	de, ok := domain.As(err)
	if !ok {
		Operations.WithLabelValues(operation, OutcomeError).Inc()
		return
	}
	if de.Kind == domain.KindConsistency {
		ConsistencyFailures.WithLabelValues(string(de.Code)).Inc()
		Operations.WithLabelValues(operation, OutcomeError).Inc()
		return
	}
	Operations.WithLabelValues(operation, OutcomeRejected).Inc()
	Rejections.WithLabelValues(operation, string(de.Code)).Inc()
}
