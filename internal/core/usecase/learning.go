package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
)

type LearningUseCase struct {
	tutor    ports.Tutor
	markdown ports.MarkdownRenderer
}

func NewLearningUseCase(tutor ports.Tutor, markdown ports.MarkdownRenderer) *LearningUseCase {
	return &LearningUseCase{tutor: tutor, markdown: markdown}
}

func (uc *LearningUseCase) Generate(ctx context.Context, topic, level string) (domain.LearningContent, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.LearningContent{}, learningValidation("topic", "Please select or enter a topic")
	}
	lvl, ok := domain.ParseLearningLevel(strings.ToLower(strings.TrimSpace(level)))
	if !ok {
		return domain.LearningContent{}, learningValidation("level", "Level must be beginner, intermediate or advanced")
	}

	markdown, err := uc.tutor.LearningContent(ctx, topic, lvl)
	if err != nil {
		return domain.LearningContent{}, fmt.Errorf("generate learning content: %w", err)
	}

	content := domain.LearningContent{Topic: topic, Level: lvl, Markdown: markdown}
	if uc.markdown != nil {
		html, err := uc.markdown.ToHTML(markdown)
		if err != nil {
			return domain.LearningContent{}, fmt.Errorf("render learning content: %w", err)
		}
		content.HTML = html
	}
	return content, nil
}

func learningValidation(field, message string) error {
	return domain.WrapError(domain.ErrInvalidInput, "learning request", &domain.ValidationError{Field: field, Message: message})
}
