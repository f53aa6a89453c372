// Package extractor reads plain text out of local documents given to the CLI.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/linguista/internal/core/domain"
)

const maxDocumentBytes = 20 << 20

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract sniffs the content type of data and returns its text. Plain text
// and its subtypes are returned as is; PDFs go through the pdf reader.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) > maxDocumentBytes {
		return "", unsupported(filename, "document larger than 20MB")
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		text, err := extractPDF(data)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("%s: %w", filename, err))
		}
		return text, nil
	case isText(mt):
		if !utf8.Valid(data) {
			return "", unsupported(filename, "text is not valid UTF-8")
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", unsupported(filename, "unsupported format "+mt.String())
	}
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func unsupported(filename, reason string) error {
	return domain.WrapError(domain.ErrInvalidInput, "extract text", &domain.ValidationError{
		Field:   "file",
		Message: fmt.Sprintf("Cannot read %s: %s", filename, reason),
	})
}
