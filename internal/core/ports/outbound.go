package ports

import (
	"context"

	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
)

// NLPProcessor runs an NLP task on the backend.
type NLPProcessor interface {
	Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error)
}

// CatalogSource serves the backend's static learning material.
type CatalogSource interface {
	SampleText(ctx context.Context, task string) (domain.SampleText, error)
	Explanation(ctx context.Context, task string) (domain.Explanation, error)
	CodeSample(ctx context.Context, sampleType string) (domain.CodeSample, error)
}

// Assistant answers chat requests.
type Assistant interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
}

// Tutor generates markdown learning content.
type Tutor interface {
	LearningContent(ctx context.Context, topic string, level domain.LearningLevel) (string, error)
}

// NLPBackend is the full backend contract.
type NLPBackend interface {
	NLPProcessor
	CatalogSource
	Assistant
	Tutor
}

// MarkdownRenderer converts markdown to HTML.
type MarkdownRenderer interface {
	ToHTML(markdown string) (string, error)
}

// TranscriptStore persists chat transcripts between requests.
type TranscriptStore interface {
	Load(ctx context.Context, sessionID string) (chat.Transcript, bool, error)
	Save(ctx context.Context, transcript chat.Transcript) error
}

// JobRepository persists asynchronous processing jobs.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, output domain.JobOutput) error
	Fail(ctx context.Context, id string, errMessage string) error
}

// JobQueue publishes and consumes job events.
type JobQueue interface {
	PublishJobQueued(ctx context.Context, event domain.JobEvent) error
	SubscribeJobQueued(ctx context.Context, handler func(context.Context, domain.JobEvent) error) error
}

// TextExtractor reads plain text out of an uploaded or local document.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}
