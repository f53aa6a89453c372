package mcpadapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/usecase"
)

type backendFake struct {
	mu       sync.Mutex
	result   domain.ProcessingResult
	err      error
	chatErr  error
	requests []domain.ProcessingRequest
	prompts  []domain.ChatRequest
}

func (f *backendFake) Process(_ context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.ProcessingResult{}, f.err
	}
	return f.result, nil
}

func (f *backendFake) Chat(_ context.Context, req domain.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "reply to " + req.Prompt(), nil
}

type catalogFake struct{}

func (catalogFake) Tasks() []domain.TaskInfo { return domain.Tasks() }

func (catalogFake) SampleText(context.Context, string) (domain.SampleText, error) {
	return domain.SampleText{}, nil
}

func (catalogFake) Explanation(_ context.Context, task string) (domain.Explanation, error) {
	if task != string(domain.TaskNER) {
		return domain.Explanation{}, domain.WrapError(domain.ErrNotFound, "load explanation", errors.New(task))
	}
	return domain.Explanation{Title: "Named Entity Recognition", What: "Finds names."}, nil
}

func (catalogFake) CodeSample(context.Context, string) (domain.CodeSample, error) {
	return domain.CodeSample{}, nil
}

func newTestServer(t *testing.T, backend *backendFake) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(Services{
		Processor: usecase.NewAnalyzeTextUseCase(backend),
		Chat:      usecase.NewChatUseCase(backend),
		Catalog:   catalogFake{},
	}, "test", logger)
}

func call(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.MCP().GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q is not registered", name)
	}
	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("%s handler error = %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestServerRegistersTools(t *testing.T) {
	s := newTestServer(t, &backendFake{})
	tools := s.MCP().ListTools()
	for _, name := range []string{toolProcessText, toolAskAssistant, toolExplainTask, toolListTasks} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("tool %q missing from %v", name, tools)
		}
	}
}

func TestProcessTextReturnsRenderedView(t *testing.T) {
	backend := &backendFake{result: domain.ProcessingResult{Result: domain.ResultPayload{
		"words":     []any{"Hello", "world"},
		"sentences": []any{"Hello world."},
	}}}
	s := newTestServer(t, backend)

	result := call(t, s, toolProcessText, map[string]any{
		"task":    "tokenization",
		"library": "spacy",
		"text":    "Hello world.",
	})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	for _, want := range []string{"Tokenization", "Word Count: 2", "Hello, world"} {
		if !strings.Contains(text, want) {
			t.Fatalf("result %q does not contain %q", text, want)
		}
	}
	if result.StructuredContent == nil {
		t.Fatalf("expected structured content")
	}
	if len(backend.requests) != 1 || backend.requests[0].Library != domain.LibrarySpaCy {
		t.Fatalf("unexpected backend requests: %+v", backend.requests)
	}
}

func TestProcessTextValidationErrorIsToolError(t *testing.T) {
	backend := &backendFake{}
	s := newTestServer(t, backend)

	result := call(t, s, toolProcessText, map[string]any{
		"task": "text_similarity",
		"text": "The cat sat.",
	})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if got := resultText(t, result); got != "Comparison text is required for text similarity analysis" {
		t.Fatalf("unexpected message %q", got)
	}
	if len(backend.requests) != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestProcessTextBackendFailure(t *testing.T) {
	var buf bytes.Buffer
	backend := &backendFake{err: domain.WrapError(domain.ErrTemporary, "process", errors.New("dial tcp: refused"))}
	s := NewServer(Services{
		Processor: usecase.NewAnalyzeTextUseCase(backend),
		Chat:      usecase.NewChatUseCase(backend),
		Catalog:   catalogFake{},
	}, "test", slog.New(slog.NewTextHandler(&buf, nil)))

	result := call(t, s, toolProcessText, map[string]any{"task": "ner", "text": "Apple"})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if strings.Contains(resultText(t, result), "dial tcp") {
		t.Fatalf("transport detail leaked: %q", resultText(t, result))
	}
	if !strings.Contains(buf.String(), "mcp_tool_failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}
}

func TestAskAssistantOpensSessionAndContinuesIt(t *testing.T) {
	backend := &backendFake{}
	s := newTestServer(t, backend)

	first := call(t, s, toolAskAssistant, map[string]any{"message": "What is a lemma?"})
	if first.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, first))
	}
	if got := resultText(t, first); got != "reply to What is a lemma?" {
		t.Fatalf("unexpected reply %q", got)
	}
	reply, ok := first.StructuredContent.(assistantReply)
	if !ok || reply.SessionID == "" {
		t.Fatalf("unexpected structured content %#v", first.StructuredContent)
	}

	second := call(t, s, toolAskAssistant, map[string]any{
		"mode":                "library_comparison",
		"code":                "nltk.word_tokenize(text)",
		"include_performance": false,
		"session_id":          reply.SessionID,
	})
	if second.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, second))
	}
	if got := second.StructuredContent.(assistantReply).SessionID; got != reply.SessionID {
		t.Fatalf("session changed: %q != %q", got, reply.SessionID)
	}

	last := backend.prompts[len(backend.prompts)-1]
	if last.SourceLibrary != "nltk" || last.TargetLibrary != "spacy" {
		t.Fatalf("expected default libraries, got %+v", last)
	}
	if last.IncludePerformance == nil || *last.IncludePerformance {
		t.Fatalf("include_performance not forwarded: %+v", last.IncludePerformance)
	}
}

func TestAskAssistantUnknownSession(t *testing.T) {
	s := newTestServer(t, &backendFake{})
	result := call(t, s, toolAskAssistant, map[string]any{"message": "hi", "session_id": "missing"})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if got := resultText(t, result); got != "Not found." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAskAssistantEmptyMessage(t *testing.T) {
	backend := &backendFake{}
	s := newTestServer(t, backend)
	result := call(t, s, toolAskAssistant, map[string]any{"message": "   "})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if got := resultText(t, result); got != "Message cannot be empty" {
		t.Fatalf("unexpected message %q", got)
	}
	if len(backend.prompts) != 0 {
		t.Fatalf("assistant must not be called")
	}
}

func TestAskAssistantBackendFailureIsRecorded(t *testing.T) {
	backend := &backendFake{chatErr: &domain.BackendError{Operation: "chat", StatusCode: 500, Message: "model offline"}}
	s := newTestServer(t, backend)
	result := call(t, s, toolAskAssistant, map[string]any{"message": "hi"})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	reply, ok := result.StructuredContent.(assistantReply)
	if !ok || !reply.Error {
		t.Fatalf("expected error reply, got %#v", result.StructuredContent)
	}
}

func TestExplainTask(t *testing.T) {
	s := newTestServer(t, &backendFake{})

	result := call(t, s, toolExplainTask, map[string]any{"task": "ner"})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Named Entity Recognition") {
		t.Fatalf("unexpected text %q", resultText(t, result))
	}

	missing := call(t, s, toolExplainTask, map[string]any{"task": "tokenization"})
	if !missing.IsError {
		t.Fatalf("expected tool error for missing explanation")
	}

	noArg := call(t, s, toolExplainTask, map[string]any{})
	if !noArg.IsError {
		t.Fatalf("expected tool error for missing task")
	}
}

func TestListTasks(t *testing.T) {
	s := newTestServer(t, &backendFake{})
	result := call(t, s, toolListTasks, nil)
	text := resultText(t, result)
	if strings.Count(text, "\n") != len(domain.Tasks())-1 {
		t.Fatalf("unexpected task list %q", text)
	}
	if !strings.HasPrefix(text, "tokenization: Tokenization") {
		t.Fatalf("unexpected first line in %q", text)
	}
}
