package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/tasks":                      "/v1/tasks",
		"/v1/jobs/123":                   "/v1/jobs/{job_id}",
		"/v1/chat/sessions/abc/messages": "/v1/chat/sessions/{session_id}/messages",
		"/v1/chat/sessions/abc/ws":       "/v1/chat/sessions/{session_id}/ws",
		"/v1/chat/sessions":              "/v1/chat/sessions",
		"/v1/explanations/ner":           "/v1/explanations/{task}",
		"/v1/code-samples/spacy-ner":     "/v1/code-samples/{type}",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/42", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/jobs/{job_id}", "418"))
	if got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestBackendAndChatObservers(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.Backend.ObserveBackendCall("nlp_process", "ok", 120*time.Millisecond)
	m.Backend.BreakerStateChanged("nlp_process", "closed", "open")
	m.ObserveChatExchange("", "backend_error", time.Second)

	if got := testutil.ToFloat64(m.Backend.callsTotal.WithLabelValues("api", "nlp_process", "ok")); got != 1 {
		t.Fatalf("expected 1 backend call, got %v", got)
	}
	if got := testutil.ToFloat64(m.Backend.breakerState.WithLabelValues("api", "nlp_process")); got != 2 {
		t.Fatalf("expected open breaker gauge 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.chatExchangesTotal.WithLabelValues("api", "unknown", "backend_error")); got != 1 {
		t.Fatalf("expected 1 chat exchange, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "linguista_backend_calls_total") {
		t.Fatalf("expected backend metrics in exposition")
	}
}

func TestWorkerJobMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartJob()
	m.FinishJob(time.Second, errors.New("boom"))
	m.ObserveQueueLag(-time.Second)

	if got := testutil.ToFloat64(m.jobTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected 1 failed job, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobInFlight); got != 0 {
		t.Fatalf("expected no in-flight jobs, got %v", got)
	}
}
