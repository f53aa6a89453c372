package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
)

type CatalogUseCase struct {
	source ports.CatalogSource
}

func NewCatalogUseCase(source ports.CatalogSource) *CatalogUseCase {
	return &CatalogUseCase{source: source}
}

func (uc *CatalogUseCase) Tasks() []domain.TaskInfo {
	return domain.Tasks()
}

func (uc *CatalogUseCase) SampleText(ctx context.Context, task string) (domain.SampleText, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		task = string(domain.TaskTokenization)
	}
	sample, err := uc.source.SampleText(ctx, task)
	if err != nil {
		return domain.SampleText{}, fmt.Errorf("load sample text: %w", err)
	}
	return sample, nil
}

func (uc *CatalogUseCase) Explanation(ctx context.Context, task string) (domain.Explanation, error) {
	if _, ok := domain.LookupTask(task); !ok {
		return domain.Explanation{}, domain.WrapError(domain.ErrNotFound, "load explanation", fmt.Errorf("unknown task %q", task))
	}
	exp, err := uc.source.Explanation(ctx, task)
	if err != nil {
		return domain.Explanation{}, fmt.Errorf("load explanation: %w", err)
	}
	return exp, nil
}

func (uc *CatalogUseCase) CodeSample(ctx context.Context, sampleType string) (domain.CodeSample, error) {
	if !slices.Contains(domain.CodeSampleTypes, sampleType) {
		return domain.CodeSample{}, domain.WrapError(domain.ErrNotFound, "load code sample", fmt.Errorf("unknown sample type %q", sampleType))
	}
	sample, err := uc.source.CodeSample(ctx, sampleType)
	if err != nil {
		return domain.CodeSample{}, fmt.Errorf("load code sample: %w", err)
	}
	return sample, nil
}
