package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

// extractPDF reads the text layer page by page. Individual page failures are
// tolerated and recorded as warnings; only a document with zero readable
// pages is an error.
func (e *Extractor) extractPDF(path string) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{SourceType: constants.PDF}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("extract.pdf.close_error", "path", path, "error", err)
		}
	}()

	var parts []string
	var warns []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i, err))
			e.logger.Warn("extract.pdf.page_error", "path", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}

	res := Result{
		SourceType: constants.PDF,
		Method:     "pdf-text",
		Pages:      r.NumPage(),
		Warnings:   warns,
	}
	if len(parts) == 0 {
		return res, ErrNoText
	}
	res.Text = strings.Join(parts, "\n\n")
	e.logger.Info("extract.pdf.ok", "path", path, "pages", res.Pages, "chars", len(res.Text))
	return res, nil
}
