package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/request"
	"github.com/kirillkom/linguista/internal/observability/metrics"
)

const maxBodyBytes = 1 << 20

// Services are the inbound ports served over HTTP. Jobs is optional; without
// it the /v1/jobs routes are not mounted.
type Services struct {
	Processor ports.TextProcessor
	Catalog   ports.Catalog
	Chat      ports.ChatService
	Learning  ports.LearningService
	Jobs      ports.JobService
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
	Metrics        *metrics.HTTPServerMetrics
}

type Router struct {
	services Services
	options  Options
	logger   *slog.Logger
	ws       *wsHandler
}

func NewRouter(services Services, options Options) *Router {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.QueueWait <= 0 {
		options.QueueWait = 250 * time.Millisecond
	}
	return &Router{
		services: services,
		options:  options,
		logger:   logger,
		ws:       newWSHandler(services.Chat, options.AllowedOrigins, logger),
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/tasks", rt.listTasks)
	mux.HandleFunc("POST /v1/process", rt.process)
	mux.HandleFunc("GET /v1/sample-text", rt.sampleText)
	mux.HandleFunc("GET /v1/explanations/{task}", rt.explanation)
	mux.HandleFunc("GET /v1/code-samples/{type}", rt.codeSample)
	mux.HandleFunc("POST /v1/chat/sessions", rt.openChat)
	mux.HandleFunc("GET /v1/chat/sessions/{sessionId}", rt.getChat)
	mux.HandleFunc("POST /v1/chat/sessions/{sessionId}/messages", rt.sendChat)
	mux.Handle("GET /v1/chat/sessions/{sessionId}/ws", rt.ws)
	mux.HandleFunc("POST /v1/learning", rt.learning)
	if rt.services.Jobs != nil {
		mux.HandleFunc("POST /v1/jobs", rt.submitJob)
		mux.HandleFunc("GET /v1/jobs/{jobId}", rt.getJob)
	}
	if rt.options.Metrics != nil {
		mux.Handle("GET /metrics", rt.options.Metrics.Handler())
	}

	specRouter, err := loadOpenAPIRouter()
	if err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	handler = openAPIValidationMiddleware(specRouter, handler)
	handler = backpressureMiddleware(handler, rt.options.MaxInFlight, rt.options.QueueWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	if rt.options.Metrics != nil {
		handler = rt.options.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": rt.services.Catalog.Tasks()})
}

func (rt *Router) process(w http.ResponseWriter, r *http.Request) {
	var in request.Input
	if !rt.decodeJSON(w, r, &in) {
		return
	}
	analysis, err := rt.services.Processor.Process(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err, "processing your request")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) sampleText(w http.ResponseWriter, r *http.Request) {
	sample, err := rt.services.Catalog.SampleText(r.Context(), r.URL.Query().Get("task"))
	if err != nil {
		rt.writeError(w, r, err, "loading the sample text")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (rt *Router) explanation(w http.ResponseWriter, r *http.Request) {
	exp, err := rt.services.Catalog.Explanation(r.Context(), r.PathValue("task"))
	if err != nil {
		rt.writeError(w, r, err, "loading the explanation")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (rt *Router) codeSample(w http.ResponseWriter, r *http.Request) {
	sample, err := rt.services.Catalog.CodeSample(r.Context(), r.PathValue("type"))
	if err != nil {
		rt.writeError(w, r, err, "loading the code sample")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (rt *Router) openChat(w http.ResponseWriter, r *http.Request) {
	transcript, err := rt.services.Chat.Open(r.Context())
	if err != nil {
		rt.writeError(w, r, err, "starting the chat")
		return
	}
	writeJSON(w, http.StatusCreated, transcript)
}

func (rt *Router) getChat(w http.ResponseWriter, r *http.Request) {
	transcript, err := rt.services.Chat.Transcript(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		rt.writeError(w, r, err, "loading the chat")
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

func (rt *Router) sendChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	transcript, err := rt.services.Chat.Send(r.Context(), r.PathValue("sessionId"), req)
	if err != nil {
		rt.writeError(w, r, err, "sending your message")
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

func (rt *Router) learning(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
		Level string `json:"level"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	content, err := rt.services.Learning.Generate(r.Context(), req.Topic, req.Level)
	if err != nil {
		rt.writeError(w, r, err, "generating learning content")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	var in request.Input
	if !rt.decodeJSON(w, r, &in) {
		return
	}
	job, err := rt.services.Jobs.Submit(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err, "submitting the job")
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := rt.services.Jobs.Get(r.Context(), r.PathValue("jobId"))
	if err != nil {
		rt.writeError(w, r, err, "loading the job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body is too large."})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body."})
		return false
	}
	return true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: errorMessage(err, action)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
