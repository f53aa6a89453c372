// Package request turns user input into the body of a backend processing call.
package request

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/linguista/internal/core/domain"
)

const minSummaryLength = 200

// Input is the raw form state captured from the user.
type Input struct {
	Task           string `json:"task"`
	Library        string `json:"library"`
	Text           string `json:"text"`
	ComparisonText string `json:"comparison_text"`
}

type fields struct {
	Task           string `json:"task" validate:"required"`
	Text           string `json:"text" validate:"required,min=3"`
	ComparisonText string `json:"comparison_text" validate:"required_if=Task text_similarity,omitempty,min=3"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(summarizationLength, fields{})
	return v
}

func summarizationLength(sl validator.StructLevel) {
	in := sl.Current().Interface().(fields)
	if in.Task == string(domain.TaskSummarization) && utf8.RuneCountInString(in.Text) < minSummaryLength {
		sl.ReportError(in.Text, "text", "Text", "summary_min", strconv.Itoa(minSummaryLength))
	}
}

// Build validates in and returns the request to send. Nothing is sent on error;
// the returned error wraps domain.ErrInvalidInput and a *domain.ValidationError.
func Build(in Input) (domain.ProcessingRequest, error) {
	f := fields{
		Task:           strings.TrimSpace(in.Task),
		Text:           strings.TrimSpace(in.Text),
		ComparisonText: strings.TrimSpace(in.ComparisonText),
	}
	// Only text_similarity reads the comparison text.
	if f.Task != string(domain.TaskSimilarity) {
		f.ComparisonText = ""
	}
	if err := validate.Struct(f); err != nil {
		return domain.ProcessingRequest{}, domain.WrapError(domain.ErrInvalidInput, "build request", toValidationError(err))
	}

	out := domain.ProcessingRequest{
		Task:    domain.Task(f.Task),
		Library: domain.ParseLibrary(in.Library),
		Text:    in.Text,
	}
	if out.Task == domain.TaskSimilarity {
		out.ComparisonText = in.ComparisonText
	}
	return out, nil
}

func toValidationError(err error) *domain.ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &domain.ValidationError{Field: "request", Message: err.Error()}
	}
	fe := errs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag())}
}

func message(field, tag string) string {
	switch field + "/" + tag {
	case "task/required":
		return "Task is required"
	case "text/required":
		return "Text input cannot be empty"
	case "text/min":
		return "Text input must be at least 3 characters long"
	case "text/summary_min":
		return "For text summarization, input must be at least 200 characters long"
	case "comparison_text/required_if":
		return "Comparison text is required for text similarity analysis"
	case "comparison_text/min":
		return "Comparison text must be at least 3 characters long"
	default:
		return field + " is invalid"
	}
}
