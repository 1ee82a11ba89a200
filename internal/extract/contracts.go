package extract

import (
	"context"
	"errors"
	"time"
)

// ErrNoText is returned when a source yields nothing extractable. Callers
// must not conflate this with an empty-but-successful extraction; there is
// no such thing here.
var ErrNoText = errors.New("no text extracted")

// Result carries the extracted text for one file. Text is never empty on a
// nil error.
type Result struct {
	Text       string
	Pages      int    // PDF page count; 0 for images
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}
