package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	Backend *BackendMetrics

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatExchangesTotal   *prometheus.CounterVec
	chatExchangeDuration *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linguista",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linguista",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "linguista",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatExchangesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linguista",
			Subsystem: "chat",
			Name:      "exchanges_total",
			Help:      "Total chat exchanges by mode and outcome.",
		},
		[]string{"service", "mode", "outcome"},
	)
	chatExchangeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linguista",
			Subsystem: "chat",
			Name:      "exchange_duration_seconds",
			Help:      "Chat exchange duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatExchangesTotal,
		chatExchangeDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		service:              service,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		Backend:              NewBackendMetrics(service, registry),
		chatExchangesTotal:   chatExchangesTotal,
		chatExchangeDuration: chatExchangeDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var pathTemplates = []struct {
	prefix   string
	template string
}{
	{"/v1/chat/sessions/", "/v1/chat/sessions/{session_id}"},
	{"/v1/jobs/", "/v1/jobs/{job_id}"},
	{"/v1/explanations/", "/v1/explanations/{task}"},
	{"/v1/code-samples/", "/v1/code-samples/{type}"},
}

func normalizePath(path string) string {
	for _, p := range pathTemplates {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if !ok || rest == "" {
			continue
		}
		if _, suffix, found := strings.Cut(rest, "/"); found {
			return p.template + "/" + suffix
		}
		return p.template
	}
	return path
}

func (m *HTTPServerMetrics) ObserveChatExchange(mode, outcome string, elapsed time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.chatExchangesTotal.WithLabelValues(m.service, mode, outcome).Inc()
	m.chatExchangeDuration.WithLabelValues(m.service, mode).Observe(elapsed.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
