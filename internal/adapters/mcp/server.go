// Package mcpadapter exposes text processing, the assistant chat and the task
// catalog as MCP tools served over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/render"
	"github.com/kirillkom/linguista/internal/core/request"
)

const (
	toolProcessText  = "process_text"
	toolAskAssistant = "ask_assistant"
	toolExplainTask  = "explain_task"
	toolListTasks    = "list_tasks"

	maxTextLength = 100_000
)

type Services struct {
	Processor ports.TextProcessor
	Chat      ports.ChatService
	Catalog   ports.Catalog
}

type Server struct {
	services Services
	logger   *slog.Logger
	mcp      *server.MCPServer
}

func NewServer(services Services, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		services: services,
		logger:   logger,
		mcp: server.NewMCPServer("linguista", version,
			server.WithToolCapabilities(false),
			server.WithInstructions("Run NLP tasks on text with NLTK or spaCy, ask the NLP assistant questions and read task explanations."),
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio handles JSON-RPC on in/out until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	taskIDs := lo.Map(domain.Tasks(), func(t domain.TaskInfo, _ int) string { return string(t.Task) })
	libraries := []string{string(domain.LibraryNLTK), string(domain.LibrarySpaCy)}

	s.mcp.AddTool(mcp.NewTool(toolProcessText,
		mcp.WithDescription("Run an NLP task on text and return the rendered result and chart data."),
		mcp.WithString("task", mcp.Required(), mcp.Enum(taskIDs...), mcp.Description("Task id")),
		mcp.WithString("text", mcp.Required(), mcp.MaxLength(maxTextLength), mcp.Description("Text to analyze")),
		mcp.WithString("library", mcp.Enum(libraries...), mcp.DefaultString(string(domain.LibraryNLTK)), mcp.Description("NLP library used by the backend")),
		mcp.WithString("comparison_text", mcp.MaxLength(maxTextLength), mcp.Description("Second text, required for text_similarity")),
	), s.processText)

	s.mcp.AddTool(mcp.NewTool(toolAskAssistant,
		mcp.WithDescription("Ask the NLP assistant a question, have it explain code, or compare a snippet across libraries."),
		mcp.WithString("mode",
			mcp.Enum(string(domain.ChatGeneral), string(domain.ChatCodeExplanation), string(domain.ChatLibraryComparison)),
			mcp.DefaultString(string(domain.ChatGeneral)),
		),
		mcp.WithString("message", mcp.Description("Question for the general mode")),
		mcp.WithString("code", mcp.Description("Code for the code_explanation and library_comparison modes")),
		mcp.WithString("source_library", mcp.Description("Library the code uses (library_comparison)")),
		mcp.WithString("target_library", mcp.Description("Library to compare against (library_comparison)")),
		mcp.WithBoolean("include_performance", mcp.Description("Include performance notes (library_comparison)")),
		mcp.WithString("session_id", mcp.Description("Continue an existing conversation")),
	), s.askAssistant)

	s.mcp.AddTool(mcp.NewTool(toolExplainTask,
		mcp.WithDescription("Explain what an NLP task does, why it is useful and how NLTK and spaCy implement it."),
		mcp.WithString("task", mcp.Required(), mcp.Enum(taskIDs...)),
	), s.explainTask)

	s.mcp.AddTool(mcp.NewTool(toolListTasks,
		mcp.WithDescription("List the supported NLP tasks."),
	), s.listTasks)
}

func (s *Server) processText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, err := s.services.Processor.Process(ctx, request.Input{
		Task:           req.GetString("task", ""),
		Library:        req.GetString("library", string(domain.LibraryNLTK)),
		Text:           req.GetString("text", ""),
		ComparisonText: req.GetString("comparison_text", ""),
	})
	if err != nil {
		return s.toolError(toolProcessText, err, "processing your request"), nil
	}
	return mcp.NewToolResultStructured(analysis, viewText(analysis.View)), nil
}

type assistantReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Error     bool   `json:"error,omitempty"`
}

func (s *Server) askAssistant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatReq := domain.ChatRequest{
		Type:          domain.ChatMode(req.GetString("mode", string(domain.ChatGeneral))),
		Message:       req.GetString("message", ""),
		Code:          req.GetString("code", ""),
		SourceLibrary: req.GetString("source_library", ""),
		TargetLibrary: req.GetString("target_library", ""),
	}
	if _, ok := req.GetArguments()["include_performance"]; ok {
		include := req.GetBool("include_performance", true)
		chatReq.IncludePerformance = &include
	}

	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		transcript, err := s.services.Chat.Open(ctx)
		if err != nil {
			return s.toolError(toolAskAssistant, err, "starting the chat"), nil
		}
		sessionID = transcript.ID
	}

	transcript, err := s.services.Chat.Send(ctx, sessionID, chatReq)
	if err != nil {
		return s.toolError(toolAskAssistant, err, "sending your message"), nil
	}
	last, ok := lo.Last(transcript.Messages)
	if !ok || last.Role != domain.RoleSystem {
		return mcp.NewToolResultError("The assistant did not reply."), nil
	}

	reply := assistantReply{SessionID: sessionID, Reply: last.Content, Error: last.Error}
	result := mcp.NewToolResultStructured(reply, last.Content)
	result.IsError = last.Error
	return result, nil
}

func (s *Server) explainTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exp, err := s.services.Catalog.Explanation(ctx, task)
	if err != nil {
		return s.toolError(toolExplainTask, err, "loading the explanation"), nil
	}
	raw, err := json.Marshal(exp)
	if err != nil {
		return nil, fmt.Errorf("encode explanation: %w", err)
	}
	return mcp.NewToolResultStructured(exp, string(raw)), nil
}

func (s *Server) listTasks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks := s.services.Catalog.Tasks()
	lines := lo.Map(tasks, func(t domain.TaskInfo, _ int) string {
		return fmt.Sprintf("%s: %s", t.Task, t.Label)
	})
	return mcp.NewToolResultStructured(map[string]any{"tasks": tasks}, strings.Join(lines, "\n")), nil
}

// toolError reports err inside the tool result so the calling model sees it.
func (s *Server) toolError(tool string, err error, action string) *mcp.CallToolResult {
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		s.logger.Warn("mcp_tool_failed", "tool", tool, "error", err)
	}
	if domain.IsKind(err, domain.ErrNotFound) {
		return mcp.NewToolResultError("Not found.")
	}
	return mcp.NewToolResultError(domain.UserMessage(err, action))
}

// viewText is the plain-text fallback for a rendered result.
func viewText(v render.View) string {
	if !v.Known {
		return v.Dump
	}
	var b strings.Builder
	b.WriteString(v.Label)
	b.WriteByte('\n')
	for _, s := range v.Stats {
		fmt.Fprintf(&b, "%s: %s\n", s.Label, s.Value)
	}
	for _, section := range v.Sections {
		fmt.Fprintf(&b, "\n%s:\n", section.Title)
		switch section.Kind {
		case render.KindTokens:
			b.WriteString(strings.Join(section.Items, ", "))
			b.WriteByte('\n')
		case render.KindPairs:
			for _, p := range section.Pairs {
				fmt.Fprintf(&b, "- %s: %s\n", p.Key, p.Value)
			}
		case render.KindText:
			b.WriteString(section.Text)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
