package domain

import "time"

type ChatRole string

const (
	RoleUser    ChatRole = "user"
	RoleSystem  ChatRole = "system"
	RolePending ChatRole = "pending"
)

// AssistantName is the display name of the system side of a chat transcript.
const AssistantName = "Linguista"

const WelcomeMessage = "👋 Hi there! I'm your NLP expert assistant. I can help you with:\n\n" +
	"• Answering questions about NLP concepts and techniques\n" +
	"• Explaining NLP-related code\n" +
	"• Comparing implementations across different libraries\n\n" +
	"Choose a chat mode from the options panel and let's get started!"

const PendingContent = "Thinking..."

type ChatMessage struct {
	ID        int64     `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Error     bool      `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatMode string

const (
	ChatGeneral           ChatMode = "general"
	ChatCodeExplanation   ChatMode = "code_explanation"
	ChatLibraryComparison ChatMode = "library_comparison"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Type               ChatMode `json:"type"`
	Message            string   `json:"message,omitempty"`
	Code               string   `json:"code,omitempty"`
	SourceLibrary      string   `json:"source_library,omitempty"`
	TargetLibrary      string   `json:"target_library,omitempty"`
	IncludePerformance *bool    `json:"include_performance,omitempty"`
}

// Prompt is the text that represents the request in the transcript.
func (r ChatRequest) Prompt() string {
	if r.Type == ChatGeneral || r.Type == "" {
		return r.Message
	}
	return r.Code
}
