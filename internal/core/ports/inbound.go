package ports

import (
	"context"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/render"
	"github.com/kirillkom/linguista/internal/core/request"
)

// Analysis is a processed request together with its rendered form.
type Analysis struct {
	Request       domain.ProcessingRequest     `json:"request"`
	Result        domain.ResultPayload         `json:"result"`
	Visualization *domain.VisualizationPayload `json:"visualization,omitempty"`
	View          render.View                  `json:"view"`
	Chart         *chart.Config                `json:"chart,omitempty"`
}

// TextProcessor is the inbound contract for synchronous processing.
type TextProcessor interface {
	Process(ctx context.Context, in request.Input) (*Analysis, error)
}

// Catalog is the inbound read model for tasks and learning material.
type Catalog interface {
	Tasks() []domain.TaskInfo
	SampleText(ctx context.Context, task string) (domain.SampleText, error)
	Explanation(ctx context.Context, task string) (domain.Explanation, error)
	CodeSample(ctx context.Context, sampleType string) (domain.CodeSample, error)
}

// ChatService is the inbound contract for chat sessions.
type ChatService interface {
	Open(ctx context.Context) (chat.Transcript, error)
	Transcript(ctx context.Context, sessionID string) (chat.Transcript, error)
	Send(ctx context.Context, sessionID string, req domain.ChatRequest) (chat.Transcript, error)
	Subscribe(ctx context.Context, sessionID string) (<-chan chat.Event, func(), error)
}

// LearningService is the inbound contract for generated learning content.
type LearningService interface {
	Generate(ctx context.Context, topic, level string) (domain.LearningContent, error)
}

// JobService submits and reads asynchronous processing jobs.
type JobService interface {
	Submit(ctx context.Context, in request.Input) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
}

// JobProcessor is the inbound contract for the job worker.
type JobProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}
