package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type contractMetrics struct {
	calls     *prometheus.CounterVec
	rejects   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	handles   prometheus.Gauge
	throttles *prometheus.CounterVec
}

var (
	contractMetricsOnce sync.Once
	contractRegistry    *contractMetrics
)

// Contracts returns the lazily-initialised registry used to record remote
// contract activity issued through the call pipeline.
func Contracts() *contractMetrics {
	contractMetricsOnce.Do(func() {
		contractRegistry = &contractMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "setprotocol",
				Subsystem: "contracts",
				Name:      "calls_total",
				Help:      "Total remote contract calls segmented by contract kind, method, mode and outcome.",
			}, []string{"kind", "method", "mode", "outcome"}),
			rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "setprotocol",
				Subsystem: "contracts",
				Name:      "rejections_total",
				Help:      "Remote rejections segmented by contract kind and whether the chain reverted.",
			}, []string{"kind", "reverted"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "setprotocol",
				Subsystem: "contracts",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution for remote contract calls and sends.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind", "method", "mode"}),
			handles: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "setprotocol",
				Subsystem: "contracts",
				Name:      "resolved_handles",
				Help:      "Contract handles currently held by live resolvers.",
			}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "setprotocol",
				Subsystem: "contracts",
				Name:      "throttle_waits_total",
				Help:      "Calls delayed by the client-side rate limiter.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			contractRegistry.calls,
			contractRegistry.rejects,
			contractRegistry.latency,
			contractRegistry.handles,
			contractRegistry.throttles,
		)
	})
	return contractRegistry
}

// Observe records the outcome of a single call or send. Mode is "call" or
// "send".
func (m *contractMetrics) Observe(kind, method, mode string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(kind, method, mode, outcome).Inc()
	m.latency.WithLabelValues(kind, method, mode).Observe(duration.Seconds())
}

// RecordRejection counts a remote rejection.
func (m *contractMetrics) RecordRejection(kind string, reverted bool) {
	if m == nil {
		return
	}
	label := "false"
	if reverted {
		label = "true"
	}
	m.rejects.WithLabelValues(kind, label).Inc()
}

// AddHandles adjusts the resolved handle gauge by delta.
func (m *contractMetrics) AddHandles(delta int) {
	if m == nil {
		return
	}
	m.handles.Add(float64(delta))
}

// RecordThrottle counts a call that had to wait on the rate limiter.
func (m *contractMetrics) RecordThrottle(kind string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(kind).Inc()
}
