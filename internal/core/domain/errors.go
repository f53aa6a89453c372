package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrBackend          = errors.New("backend error")
	ErrTemporary        = errors.New("temporary failure")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrExchangeInFlight = errors.New("exchange in flight")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// BackendError carries the message the NLP backend reported for a logical failure.
type BackendError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// UserMessage returns the text shown to an end user for err. Validation and
// backend-reported failures keep their own message; everything else collapses
// into a generic line naming the action that failed.
func UserMessage(err error, action string) string {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var backend *BackendError
	if errors.As(err, &backend) {
		return backend.Message
	}
	return fmt.Sprintf("An error occurred while %s.", action)
}

// ValidationError is a local, field-level rejection raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
