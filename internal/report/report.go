// Package report summarizes the matches archive as an XLSX workbook, one row
// per accepted verdict.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheet = "Matches"

var headers = []string{
	"artifact", "confidence", "row_number", "date", "description", "matched_row",
}

// Service builds match reports from the matches folder.
type Service struct {
	matchesDir string
	logger     *slog.Logger
}

func NewService(matchesDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{matchesDir: matchesDir, logger: logger}
}

type matchRow struct {
	Artifact    string
	Confidence  float64
	RowNumber   *int
	Date        string
	Description string
	MatchedRow  string
}

// ExportXLSX returns an XLSX workbook (as bytes) summarizing every
// `*_match.json` verdict in the matches folder, joined with its
// `*_matched_row.txt` when present.
func (s *Service) ExportXLSX() ([]byte, int, error) {
	start := time.Now()

	rows, err := s.collect()
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("report.workbook_close_error", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, 0, err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, 0, err
		}
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, row.Artifact)
		set(2, row.Confidence)
		if row.RowNumber != nil {
			set(3, *row.RowNumber)
		}
		set(4, row.Date)
		set(5, row.Description)
		set(6, row.MatchedRow)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("report.export_ok", "matches", len(rows), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), len(rows), nil
}

func (s *Service) collect() ([]matchRow, error) {
	entries, err := os.ReadDir(s.matchesDir)
	if err != nil {
		return nil, fmt.Errorf("read matches dir: %w", err)
	}

	var rows []matchRow
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "_match.json") {
			continue
		}
		base := strings.TrimSuffix(name, "_match.json")

		raw, err := os.ReadFile(filepath.Join(s.matchesDir, name))
		if err != nil {
			s.logger.Warn("report.verdict_read_failed", "file", name, "error", err)
			continue
		}
		var v struct {
			Confidence  float64 `json:"confidence"`
			RowNumber   *int    `json:"row_number"`
			Date        string  `json:"date"`
			Description string  `json:"description"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			s.logger.Warn("report.verdict_decode_failed", "file", name, "error", err)
			continue
		}

		row := matchRow{
			Artifact:    base + ".txt",
			Confidence:  v.Confidence,
			RowNumber:   v.RowNumber,
			Date:        v.Date,
			Description: v.Description,
		}
		if b, err := os.ReadFile(filepath.Join(s.matchesDir, base+"_matched_row.txt")); err == nil {
			row.MatchedRow = string(b)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Artifact < rows[j].Artifact })
	return rows, nil
}
