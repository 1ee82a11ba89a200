package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/ledgerflow/constants"
	"github.com/joseph-ayodele/ledgerflow/internal/llm"
)

// Config for the extractor: which extensions map to which strategy, and the
// OCR instruction sent with images.
type Config struct {
	ImageExtensions map[string]struct{} // lowercased sans '.'; nil -> defaults
	PDFExtensions   map[string]struct{}
	OCRPrompt       string
}

// Extractor dispatches on the recognized file kind: PDFs are parsed locally,
// images go through the vision judgment endpoint.
type Extractor struct {
	cfg    Config
	vision llm.TextGenerator
	logger *slog.Logger
}

func NewExtractor(cfg Config, vision llm.TextGenerator, logger *slog.Logger) *Extractor {
	if cfg.ImageExtensions == nil {
		cfg.ImageExtensions = constants.ExtSet(constants.DefaultImageExtensions)
	}
	if cfg.PDFExtensions == nil {
		cfg.PDFExtensions = constants.ExtSet(constants.DefaultPDFExtensions)
	}
	if cfg.OCRPrompt == "" {
		cfg.OCRPrompt = "Please transcribe all visible text in this image."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, vision: vision, logger: logger}
}

// Kind reports the recognized format for a path, or "" if the extension is
// not in either accepted set.
func (e *Extractor) Kind(path string) string {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := e.cfg.PDFExtensions[ext]; ok {
		return constants.PDF
	}
	if _, ok := e.cfg.ImageExtensions[ext]; ok {
		return constants.IMAGE
	}
	return ""
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	kind := e.Kind(path)
	e.logger.Debug("extract.start", "path", path, "kind", kind)
	switch kind {
	case constants.PDF:
		res, err := e.extractPDF(path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		return Result{}, fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
	}
}
