package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	submitted *prometheus.CounterVec
	mined     *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking submitted transactions and
// their receipts.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "setprotocol",
				Subsystem: "events",
				Name:      "transactions_submitted_total",
				Help:      "Count of transactions submitted segmented by contract kind and method.",
			}, []string{"kind", "method"}),
			mined: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "setprotocol",
				Subsystem: "events",
				Name:      "receipts_total",
				Help:      "Count of mined receipts segmented by status.",
			}, []string{"status"}),
		}
		prometheus.MustRegister(eventRegistry.submitted, eventRegistry.mined)
	})
	return eventRegistry
}

// RecordSubmitted increments the submission counter.
func (m *eventMetrics) RecordSubmitted(kind, method string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(method)
	if normalized == "" {
		normalized = "unknown"
	}
	m.submitted.WithLabelValues(kind, normalized).Inc()
}

// RecordReceipt increments the receipt counter for a successful or failed
// transaction.
func (m *eventMetrics) RecordReceipt(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.mined.WithLabelValues(status).Inc()
}
