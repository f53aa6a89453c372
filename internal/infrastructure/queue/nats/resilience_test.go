package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/linguista/internal/core/domain"
)

func TestClassifyPublishError(t *testing.T) {
	if class := classifyPublishError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must be neither retried nor recorded: %+v", class)
	}
	if class := classifyPublishError(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed)); !class.Retryable {
		t.Fatalf("closed connection must be retryable: %+v", class)
	}
	if class := classifyPublishError(nats.ErrBadSubject); class.Retryable || !class.RecordFailure {
		t.Fatalf("bad subject must be a recorded permanent failure: %+v", class)
	}
}

func TestAsTemporary(t *testing.T) {
	err := asTemporary(fmt.Errorf("nats publish: %w", nats.ErrTimeout))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	permanent := errors.New("invalid subject")
	if got := asTemporary(permanent); got != permanent {
		t.Fatalf("permanent errors must pass through, got %v", got)
	}
	if asTemporary(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
