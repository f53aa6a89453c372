package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/request"
)

type SubmitJobUseCase struct {
	repo  ports.JobRepository
	queue ports.JobQueue
}

func NewSubmitJobUseCase(repo ports.JobRepository, queue ports.JobQueue) *SubmitJobUseCase {
	return &SubmitJobUseCase{repo: repo, queue: queue}
}

// Submit validates the input, stores a queued job and announces it to workers.
func (uc *SubmitJobUseCase) Submit(ctx context.Context, in request.Input) (*domain.Job, error) {
	req, err := request.Build(in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    domain.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	event := domain.JobEvent{JobID: job.ID, Task: req.Task, EnqueuedAt: now}
	if err := uc.queue.PublishJobQueued(ctx, event); err != nil {
		return nil, fmt.Errorf("publish job queued event: %w", err)
	}
	return job, nil
}

func (uc *SubmitJobUseCase) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch job by id: %w", err)
	}
	return job, nil
}

const statusWriteTimeout = 10 * time.Second

type ProcessJobUseCase struct {
	repo    ports.JobRepository
	analyze *AnalyzeTextUseCase
}

func NewProcessJobUseCase(repo ports.JobRepository, backend ports.NLPProcessor) *ProcessJobUseCase {
	return &ProcessJobUseCase{repo: repo, analyze: NewAnalyzeTextUseCase(backend)}
}

func (uc *ProcessJobUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.repo.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("set status=running: %w", err)
	}

	output, err := uc.run(ctx, jobID)

	// The terminal status is written even when ctx was cancelled or timed out,
	// so the job never stays running.
	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err != nil {
		if failErr := uc.markFailed(statusCtx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.Complete(statusCtx, jobID, output); err != nil {
		return fmt.Errorf("set status=done: %w", err)
	}
	return nil
}

func (uc *ProcessJobUseCase) run(ctx context.Context, jobID string) (domain.JobOutput, error) {
	job, err := uc.repo.GetByID(ctx, jobID)
	if err != nil {
		return domain.JobOutput{}, fmt.Errorf("fetch job by id: %w", err)
	}

	analysis, err := uc.analyze.Analyze(ctx, job.Request)
	if err != nil {
		return domain.JobOutput{}, err
	}

	view, err := json.Marshal(analysis.View)
	if err != nil {
		return domain.JobOutput{}, fmt.Errorf("encode view: %w", err)
	}
	output := domain.JobOutput{
		Result:        analysis.Result,
		Visualization: analysis.Visualization,
		View:          view,
	}
	if analysis.Chart != nil {
		if output.Chart, err = json.Marshal(analysis.Chart); err != nil {
			return domain.JobOutput{}, fmt.Errorf("encode chart: %w", err)
		}
	}
	return output, nil
}

func (uc *ProcessJobUseCase) markFailed(ctx context.Context, jobID string, processErr error) error {
	return uc.repo.Fail(ctx, jobID, domain.UserMessage(processErr, "processing the job"))
}
