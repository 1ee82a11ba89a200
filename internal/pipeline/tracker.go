package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ledgerflow/constants"
	"github.com/joseph-ayodele/ledgerflow/internal/extract"
)

// TrackerConfig holds the folder layout and accepted extensions for the
// extraction stage.
type TrackerConfig struct {
	Incoming  string
	Extracted string
	Processed string
	Errors    string

	// AcceptedExts is the union of image and PDF extensions, lowercased
	// without the dot.
	AcceptedExts map[string]struct{}
}

// Tracker drives watched files through the extraction stage: incoming ->
// extracted+processed on success, incoming -> errors on failure. Each file is
// visited exactly once per pass and leaves the incoming folder by the end of
// its handling.
type Tracker struct {
	cfg       TrackerConfig
	extractor extract.TextExtractor
	logger    *slog.Logger
}

func NewTracker(cfg TrackerConfig, extractor extract.TextExtractor, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{cfg: cfg, extractor: extractor, logger: logger}
}

// RunExtractionPass enumerates the incoming folder non-recursively, in
// discovery order, and handles every file with an accepted extension.
// Per-file failures are routed to the errors folder and never abort the
// pass. Returns the count of newly extracted files.
func (t *Tracker) RunExtractionPass(ctx context.Context) int {
	passID := uuid.New().String()
	start := time.Now()

	entries, err := os.ReadDir(t.cfg.Incoming)
	if err != nil {
		t.logger.Error("pipeline.extract.scan_error", "pass_id", passID, "dir", t.cfg.Incoming, "error", err)
		return 0
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !t.accepted(e.Name()) {
			continue
		}
		candidates = append(candidates, filepath.Join(t.cfg.Incoming, e.Name()))
	}
	if len(candidates) == 0 {
		return 0
	}

	t.logger.Info("pipeline.extract.pass_start", "pass_id", passID, "files", len(candidates))

	extracted := 0
	for _, path := range candidates {
		if t.ProcessFile(ctx, path) {
			extracted++
		}
	}

	t.logger.Info("pipeline.extract.pass_done",
		"pass_id", passID,
		"extracted", extracted,
		"total", len(candidates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extracted
}

// ProcessFile runs the extraction state machine for a single file. It
// returns true when a text artifact was written and the source archived.
// Any failure moves the source to the errors folder; an artifact already
// written by the failing attempt is left in place (no rollback).
func (t *Tracker) ProcessFile(ctx context.Context, path string) bool {
	name := filepath.Base(path)
	if !t.accepted(name) {
		t.logger.Debug("pipeline.extract.skip_unsupported", "file", name)
		return false
	}

	res, err := t.extractor.Extract(ctx, path)
	if err != nil {
		t.logger.Error("pipeline.extract.failed", "file", name, "error", err, "state", constants.StateError)
		t.moveToErrors(path)
		return false
	}

	artifact := filepath.Join(t.cfg.Extracted, stem(name)+".txt")
	if err := os.WriteFile(artifact, []byte(res.Text), 0o644); err != nil {
		t.logger.Error("pipeline.extract.artifact_write_failed", "file", name, "artifact", artifact, "error", err, "state", constants.StateError)
		t.moveToErrors(path)
		return false
	}

	if _, err := moveFile(path, t.cfg.Processed); err != nil {
		t.logger.Error("pipeline.extract.archive_failed", "file", name, "error", err, "state", constants.StateError)
		t.moveToErrors(path)
		return false
	}

	t.logger.Info("pipeline.extract.ok",
		"file", name,
		"artifact", filepath.Base(artifact),
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"state", constants.StateExtracted,
	)
	return true
}

func (t *Tracker) accepted(name string) bool {
	ext := constants.NormalizeExt(filepath.Ext(name))
	_, ok := t.cfg.AcceptedExts[ext]
	return ok
}

func (t *Tracker) moveToErrors(path string) {
	if _, err := moveFile(path, t.cfg.Errors); err != nil {
		t.logger.Error("pipeline.extract.errors_move_failed", "file", filepath.Base(path), "error", err)
	}
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
