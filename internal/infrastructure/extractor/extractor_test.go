package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/linguista/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	text, err := New().Extract(context.Background(), "notes.txt", []byte("  Natural language processing.\n"))
	require.NoError(t, err)
	require.Equal(t, "Natural language processing.", text)
}

func TestExtractTextSubtypes(t *testing.T) {
	text, err := New().Extract(context.Background(), "data.csv", []byte("word,score\nnlp,0.9\n"))
	require.NoError(t, err)
	require.Contains(t, text, "nlp,0.9")
}

func TestExtractRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := New().Extract(context.Background(), "logo.png", png)
	require.True(t, errors.Is(err, domain.ErrInvalidInput))
	require.Contains(t, domain.UserMessage(err, "reading the file"), "image/png")
}

func TestExtractRejectsBrokenPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), "paper.pdf", []byte("%PDF-1.4\nnot really a pdf"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Extract(ctx, "notes.txt", []byte("text"))
	require.ErrorIs(t, err, context.Canceled)
}
