package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/request"
)

type jobStatusCall struct {
	status domain.JobStatus
	errMsg string
}

type jobRepoFake struct {
	job         *domain.Job
	createErr   error
	getErr      error
	runningErr  error
	completeErr error
	created     []*domain.Job
	statusCalls []jobStatusCall
	output      domain.JobOutput
	// honorCtx makes status writes fail on a done context like a real driver.
	honorCtx bool
}

func (f *jobRepoFake) Create(_ context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, job)
	return nil
}

func (f *jobRepoFake) GetByID(context.Context, string) (*domain.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyJob := *f.job
	return &copyJob, nil
}

func (f *jobRepoFake) MarkRunning(context.Context, string) error {
	f.statusCalls = append(f.statusCalls, jobStatusCall{status: domain.JobRunning})
	return f.runningErr
}

func (f *jobRepoFake) Complete(ctx context.Context, _ string, output domain.JobOutput) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	f.statusCalls = append(f.statusCalls, jobStatusCall{status: domain.JobDone})
	f.output = output
	return f.completeErr
}

func (f *jobRepoFake) Fail(ctx context.Context, _ string, msg string) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	f.statusCalls = append(f.statusCalls, jobStatusCall{status: domain.JobFailed, errMsg: msg})
	return nil
}

type jobQueueFake struct {
	published []domain.JobEvent
	err       error
}

func (f *jobQueueFake) PublishJobQueued(_ context.Context, event domain.JobEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *jobQueueFake) SubscribeJobQueued(context.Context, func(context.Context, domain.JobEvent) error) error {
	return nil
}

func TestSubmitJobStoresAndPublishes(t *testing.T) {
	repo := &jobRepoFake{}
	queue := &jobQueueFake{}
	uc := NewSubmitJobUseCase(repo, queue)

	job, err := uc.Submit(context.Background(), request.Input{Task: "ner", Text: "Apple is in Cupertino"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Status != domain.JobQueued || job.ID == "" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if len(repo.created) != 1 || len(queue.published) != 1 {
		t.Fatalf("expected create + publish, got created=%d published=%v", len(repo.created), queue.published)
	}
	event := queue.published[0]
	if event.JobID != job.ID || event.Task != domain.TaskNER || !event.EnqueuedAt.Equal(job.CreatedAt) {
		t.Fatalf("unexpected event %+v for job %+v", event, job)
	}
}

func TestSubmitJobRejectsInvalidInput(t *testing.T) {
	repo := &jobRepoFake{}
	queue := &jobQueueFake{}
	uc := NewSubmitJobUseCase(repo, queue)

	_, err := uc.Submit(context.Background(), request.Input{Task: "ner", Text: "   "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.created) != 0 || len(queue.published) != 0 {
		t.Fatalf("nothing should be stored or published")
	}
}

func TestSubmitJobPublishFailure(t *testing.T) {
	uc := NewSubmitJobUseCase(&jobRepoFake{}, &jobQueueFake{err: errors.New("nats down")})

	if _, err := uc.Submit(context.Background(), request.Input{Task: "ner", Text: "Apple is in Cupertino"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProcessJobCompletes(t *testing.T) {
	repo := &jobRepoFake{job: &domain.Job{ID: "job-1", Request: domain.ProcessingRequest{
		Task: domain.TaskKeywordExtraction, Library: domain.LibraryNLTK, Text: "keywords here",
	}}}
	backend := &backendFake{result: domain.ProcessingResult{
		Result:        domain.ResultPayload{"keywords": []any{[]any{"nlp", 0.9}}},
		Visualization: &domain.VisualizationPayload{Points: []domain.ChartPoint{{Name: "nlp", Value: 0.9}}},
	}}
	uc := NewProcessJobUseCase(repo, backend)

	if err := uc.ProcessByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[0].status != domain.JobRunning || repo.statusCalls[1].status != domain.JobDone {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if len(repo.output.Chart) == 0 || !json.Valid(repo.output.View) {
		t.Fatalf("expected encoded view and chart, got %+v", repo.output)
	}
}

func TestProcessJobMarksFailedWithBackendMessage(t *testing.T) {
	repo := &jobRepoFake{job: &domain.Job{ID: "job-1", Request: domain.ProcessingRequest{Task: domain.TaskNER, Text: "abc"}}}
	backendErr := domain.WrapError(domain.ErrBackend, "nlp_process", &domain.BackendError{Message: "spaCy model not loaded"})
	uc := NewProcessJobUseCase(repo, &backendFake{err: backendErr})

	err := uc.ProcessByID(context.Background(), "job-1")
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.JobFailed || last.errMsg != "spaCy model not loaded" {
		t.Fatalf("unexpected final status: %+v", last)
	}
}

func TestProcessJobGenericFailureMessage(t *testing.T) {
	repo := &jobRepoFake{getErr: errors.New("db gone")}
	uc := NewProcessJobUseCase(repo, &backendFake{})

	if err := uc.ProcessByID(context.Background(), "job-1"); err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.errMsg != "An error occurred while processing the job." {
		t.Fatalf("unexpected failure message %q", last.errMsg)
	}
}

// cancellingProcessor cancels the job context mid-call, as a worker shutdown
// or job timeout would.
type cancellingProcessor struct {
	cancel context.CancelFunc
}

func (p cancellingProcessor) Process(ctx context.Context, _ domain.ProcessingRequest) (domain.ProcessingResult, error) {
	p.cancel()
	<-ctx.Done()
	return domain.ProcessingResult{}, ctx.Err()
}

func TestProcessJobMarksFailedAfterCancellation(t *testing.T) {
	repo := &jobRepoFake{
		job:      &domain.Job{ID: "job-1", Request: domain.ProcessingRequest{Task: domain.TaskNER, Text: "Apple"}},
		honorCtx: true,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uc := NewProcessJobUseCase(repo, cancellingProcessor{cancel: cancel})

	err := uc.ProcessByID(ctx, "job-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if strings.Contains(err.Error(), "mark failed status") {
		t.Fatalf("failed status was not written: %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.JobFailed {
		t.Fatalf("expected running then failed, got %+v", repo.statusCalls)
	}
}
