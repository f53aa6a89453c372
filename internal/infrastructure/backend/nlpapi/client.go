// Package nlpapi is the HTTP client for the external NLP backend.
package nlpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/infrastructure/resilience"
)

const (
	opProcess     = "nlp_process"
	opSampleText  = "nlp_sample_text"
	opExplanation = "nlp_explanation"
	opCodeSample  = "nlp_code_sample"
	opChat        = "nlp_chat"
	opLearning    = "nlp_learning_content"
)

// CallObserver receives the outcome of every backend call.
type CallObserver interface {
	ObserveBackendCall(operation, outcome string, elapsed time.Duration)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(observer CallObserver) Option {
	return func(c *Client) { c.observer = observer }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	observer   CallObserver
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process runs one NLP task. It is issued exactly once per call.
func (c *Client) Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error) {
	var resp struct {
		envelope
		Result        domain.ResultPayload         `json:"result"`
		Visualization *domain.VisualizationPayload `json:"visualization"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/process", nil, req, &resp, opProcess, resilience.SingleAttempt()); err != nil {
		return domain.ProcessingResult{}, err
	}
	if resp.Result == nil {
		resp.Result = domain.ResultPayload{}
	}
	return domain.ProcessingResult{Result: resp.Result, Visualization: resp.Visualization}, nil
}

func (c *Client) SampleText(ctx context.Context, task string) (domain.SampleText, error) {
	var resp struct {
		envelope
		domain.SampleText
	}
	query := url.Values{"task": {task}}
	if err := c.call(ctx, http.MethodGet, "/api/sample-text", query, nil, &resp, opSampleText); err != nil {
		return domain.SampleText{}, err
	}
	return resp.SampleText, nil
}

func (c *Client) Explanation(ctx context.Context, task string) (domain.Explanation, error) {
	var resp struct {
		envelope
		Explanation domain.Explanation `json:"explanation"`
	}
	path := "/api/explanation/" + url.PathEscape(task)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &resp, opExplanation); err != nil {
		return domain.Explanation{}, err
	}
	return resp.Explanation, nil
}

func (c *Client) CodeSample(ctx context.Context, sampleType string) (domain.CodeSample, error) {
	var resp struct {
		envelope
		Code string `json:"code"`
	}
	query := url.Values{"type": {sampleType}}
	if err := c.call(ctx, http.MethodGet, "/api/code-sample", query, nil, &resp, opCodeSample); err != nil {
		return domain.CodeSample{}, err
	}
	return domain.CodeSample{Type: sampleType, Code: resp.Code}, nil
}

// Chat sends one chat request and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	var resp struct {
		envelope
		Response string `json:"response"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/chat", nil, req, &resp, opChat, resilience.SingleAttempt()); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// LearningContent returns markdown for a topic at the given level.
func (c *Client) LearningContent(ctx context.Context, topic string, level domain.LearningLevel) (string, error) {
	body := map[string]string{"topic": topic, "level": string(level)}
	var resp struct {
		envelope
		Content string `json:"content"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/generate-learning-content", nil, body, &resp, opLearning, resilience.SingleAttempt()); err != nil {
		return "", err
	}
	return resp.Content, nil
}
