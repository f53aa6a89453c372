package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/render"
	"github.com/kirillkom/linguista/internal/core/request"
)

type AnalyzeTextUseCase struct {
	backend ports.NLPProcessor
}

func NewAnalyzeTextUseCase(backend ports.NLPProcessor) *AnalyzeTextUseCase {
	return &AnalyzeTextUseCase{backend: backend}
}

// Process validates the input locally, sends one request to the backend and
// renders the result. Validation failures never reach the backend.
func (uc *AnalyzeTextUseCase) Process(ctx context.Context, in request.Input) (*ports.Analysis, error) {
	req, err := request.Build(in)
	if err != nil {
		return nil, err
	}
	return uc.Analyze(ctx, req)
}

// Analyze sends an already validated request.
func (uc *AnalyzeTextUseCase) Analyze(ctx context.Context, req domain.ProcessingRequest) (*ports.Analysis, error) {
	result, err := uc.backend.Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("process text: %w", err)
	}
	return buildAnalysis(req, result), nil
}

func buildAnalysis(req domain.ProcessingRequest, result domain.ProcessingResult) *ports.Analysis {
	task := string(req.Task)
	out := &ports.Analysis{
		Request:       req,
		Result:        result.Result,
		Visualization: result.Visualization,
		View:          render.Render(task, result.Result),
	}
	if cfg, ok := chart.Map(task, result.Visualization); ok {
		out.Chart = &cfg
	}
	return out
}
