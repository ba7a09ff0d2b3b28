// Package chatmetrics exposes Prometheus instruments for chat operations.
package chatmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics records the outcome and latency of chat operations.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewhub",
			Subsystem: "chat",
			Name:      "operations_total",
			Help:      "Chat operations by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crewhub",
			Subsystem: "chat",
			Name:      "operation_duration_seconds",
			Help:      "Chat operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.duration)
	}
	return m
}

// Observe records one operation that started at start and finished with
// the given result label.
func (m *Metrics) Observe(op, result string, start time.Time) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Count returns the current counter value for (op, result). Intended for
// tests and diagnostics.
func (m *Metrics) Count(op, result string) float64 {
	if m == nil {
		return 0
	}
	c, err := m.ops.GetMetricWithLabelValues(op, result)
	if err != nil {
		return 0
	}
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
