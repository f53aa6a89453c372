package nlpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/infrastructure/resilience"
)

const maxResponseBytes = 8 << 20

// envelope is the failure signal shared by every backend response.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (e envelope) failure() (string, bool) {
	if strings.TrimSpace(e.Error) != "" {
		return e.Error, true
	}
	if e.Success != nil && !*e.Success {
		return "request failed", true
	}
	return "", false
}

type response interface {
	failure() (string, bool)
}

func (c *Client) call(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload any,
	out response,
	operation string,
	opts ...resilience.CallOption,
) error {
	start := time.Now()
	err := c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, path, query, payload, out, operation)
	}, classifyBackendError, opts...)
	if c.observer != nil {
		c.observer.ObserveBackendCall(operation, outcome(err), time.Since(start))
	}
	return wrapError(operation, err)
}

func (c *Client) roundTrip(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload any,
	out response,
	operation string,
) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nlp %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode >= 300 {
		return formatHTTPError(operation, resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	if msg, failed := out.failure(); failed {
		return &domain.BackendError{Operation: operation, StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// formatHTTPError prefers the backend's own error message when the body is a
// JSON envelope and falls back to the raw status otherwise.
func formatHTTPError(operation string, resp *http.Response, raw []byte) error {
	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		if msg, failed := env.failure(); failed {
			return &domain.BackendError{Operation: operation, StatusCode: resp.StatusCode, Message: msg}
		}
	}
	if len(raw) > 2048 {
		raw = raw[:2048]
	}
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(raw)),
	}
}
