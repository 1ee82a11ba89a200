package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/ledgerflow/constants"
	"github.com/joseph-ayodele/ledgerflow/internal/llm"
)

// extractImage performs OCR through the vision judgment endpoint, with the
// image attached as an inline base64 data URL.
func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	if e.vision == nil {
		return Result{SourceType: constants.IMAGE}, fmt.Errorf("no vision client configured for OCR")
	}

	text, err := e.vision.GenerateText(ctx, llm.GenerateRequest{
		Prompt:    e.cfg.OCRPrompt,
		ImagePath: path,
	})
	if err != nil {
		return Result{SourceType: constants.IMAGE}, fmt.Errorf("image ocr: %w", err)
	}

	res := Result{
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
	}
	if strings.TrimSpace(text) == "" {
		return res, ErrNoText
	}
	res.Text = text
	e.logger.Info("extract.image.ok", "path", path, "chars", len(text))
	return res, nil
}
