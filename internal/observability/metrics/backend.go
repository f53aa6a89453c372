package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics records calls to the NLP backend and breaker transitions.
type BackendMetrics struct {
	service string

	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	breakerState *prometheus.GaugeVec
}

func NewBackendMetrics(service string, registerer prometheus.Registerer) *BackendMetrics {
	callsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linguista",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Total calls to the NLP backend by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	callDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linguista",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "NLP backend call duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "linguista",
			Subsystem: "backend",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	registerer.MustRegister(callsTotal, callDuration, breakerState)

	return &BackendMetrics{
		service:      service,
		callsTotal:   callsTotal,
		callDuration: callDuration,
		breakerState: breakerState,
	}
}

func (m *BackendMetrics) ObserveBackendCall(operation, outcome string, elapsed time.Duration) {
	m.callsTotal.WithLabelValues(m.service, operation, outcome).Inc()
	m.callDuration.WithLabelValues(m.service, operation).Observe(elapsed.Seconds())
}

func (m *BackendMetrics) BreakerStateChanged(operation, _, to string) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
