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
	"github.com/joseph-ayodele/ledgerflow/internal/ledger"
	"github.com/joseph-ayodele/ledgerflow/internal/llm"
)

// MatcherConfig holds the reconciliation stage settings.
type MatcherConfig struct {
	Extracted  string
	Matches    string
	LedgerFile string

	// PromptTemplate carries {text} and {match_data} placeholders.
	PromptTemplate string
	// ConfidenceThreshold gates verdict acceptance; default 0.6.
	ConfidenceThreshold float64
	// MaxAttempts bounds judgment calls per artifact; 0 means unlimited.
	MaxAttempts int
}

// Matcher reconciles pending text artifacts against the ledger. Artifacts
// without an accepted verdict stay in the extracted folder and are
// re-evaluated every pass.
type Matcher struct {
	cfg    MatcherConfig
	judge  llm.TextGenerator
	logger *slog.Logger

	// attempts counts judgment calls per artifact name for the retry budget.
	// In-memory only: the counter resets on process restart.
	attempts map[string]int
}

func NewMatcher(cfg MatcherConfig, judge llm.TextGenerator, logger *slog.Logger) *Matcher {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{cfg: cfg, judge: judge, logger: logger, attempts: make(map[string]int)}
}

// RunMatchingPass evaluates every pending artifact once. A missing ledger
// file is not an error, just nothing to match against yet. Per-artifact
// failures are logged and never abort the pass.
func (m *Matcher) RunMatchingPass(ctx context.Context) {
	passID := uuid.New().String()
	start := time.Now()

	if _, err := os.Stat(m.cfg.LedgerFile); err != nil {
		m.logger.Debug("pipeline.match.no_ledger", "pass_id", passID, "ledger", m.cfg.LedgerFile)
		return
	}

	artifacts := m.pendingArtifacts()
	if len(artifacts) == 0 {
		m.logger.Debug("pipeline.match.nothing_pending", "pass_id", passID)
		return
	}

	// Re-parsed fresh on every pass; no caching.
	table, err := ledger.Load(m.cfg.LedgerFile)
	if err != nil {
		m.logger.Error("pipeline.match.ledger_load_failed", "pass_id", passID, "error", err)
		return
	}

	m.logger.Info("pipeline.match.pass_start", "pass_id", passID, "artifacts", len(artifacts), "ledger_rows", len(table.Rows))

	matched := 0
	for _, path := range artifacts {
		if m.matchArtifact(ctx, table, path) {
			matched++
		}
	}

	m.logger.Info("pipeline.match.pass_done",
		"pass_id", passID,
		"matched", matched,
		"pending", len(artifacts)-matched,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// matchArtifact runs one judgment call for one artifact and applies the
// acceptance policy. Returns true when the artifact moved to matches.
func (m *Matcher) matchArtifact(ctx context.Context, table *ledger.Table, path string) bool {
	name := filepath.Base(path)

	if m.cfg.MaxAttempts > 0 && m.attempts[name] >= m.cfg.MaxAttempts {
		m.logger.Debug("pipeline.match.budget_exhausted", "artifact", name, "attempts", m.attempts[name])
		return false
	}

	text, err := os.ReadFile(path)
	if err != nil {
		m.logger.Error("pipeline.match.artifact_read_failed", "artifact", name, "error", err)
		return false
	}

	prompt := RenderPrompt(m.cfg.PromptTemplate, string(text), table.Serialize())
	m.attempts[name]++

	resp, err := m.judge.GenerateText(ctx, llm.GenerateRequest{Prompt: prompt, Temperature: 0.0})
	if err != nil {
		m.logger.Warn("pipeline.match.judgment_failed", "artifact", name, "error", err, "state", constants.StatePendingMatch)
		m.noteExhaustion(name)
		return false
	}

	verdict, err := llm.ParseVerdict(resp)
	if err != nil {
		m.logger.Warn("pipeline.match.verdict_parse_failed", "artifact", name, "error", err, "state", constants.StatePendingMatch)
		m.noteExhaustion(name)
		return false
	}

	row := -1
	if verdict.RowNumber != nil {
		row = *verdict.RowNumber
	}
	m.logger.Info("pipeline.match.verdict",
		"artifact", name,
		"confidence", verdict.Confidence,
		"row_number", row,
	)

	if !verdict.Accepted(m.cfg.ConfidenceThreshold) {
		m.logger.Info("pipeline.match.no_match", "artifact", name, "confidence", verdict.Confidence, "state", constants.StatePendingMatch)
		m.noteExhaustion(name)
		return false
	}

	if err := m.moveMatch(path, verdict, table); err != nil {
		m.logger.Error("pipeline.match.move_failed", "artifact", name, "error", err)
		return false
	}
	delete(m.attempts, name)
	return true
}

// moveMatch performs the terminal transition: artifact to matches, verdict
// serialized alongside it, and the resolved ledger row if one is found.
func (m *Matcher) moveMatch(path string, verdict llm.Verdict, table *ledger.Table) error {
	name := filepath.Base(path)
	base := stem(name)

	if _, err := moveFile(path, m.cfg.Matches); err != nil {
		return err
	}

	verdictPath := filepath.Join(m.cfg.Matches, base+"_match.json")
	buf, err := verdict.MarshalPretty()
	if err != nil {
		return err
	}
	if err := os.WriteFile(verdictPath, buf, 0o644); err != nil {
		return err
	}

	row, ok := table.FindRow(verdict.Date, verdict.Description)
	if !ok {
		// Partial success: the artifact and verdict stay moved, only the
		// row file is skipped.
		m.logger.Warn("pipeline.match.row_not_found",
			"artifact", name,
			"date", verdict.Date,
			"description", truncate(verdict.Description, 50),
		)
		m.logger.Info("pipeline.match.ok", "artifact", name, "row_file", false, "state", constants.StateMatched)
		return nil
	}

	rowPath := filepath.Join(m.cfg.Matches, base+"_matched_row.txt")
	if err := os.WriteFile(rowPath, []byte(row.Join()), 0o644); err != nil {
		return err
	}

	m.logger.Info("pipeline.match.ok", "artifact", name, "row_file", true, "state", constants.StateMatched)
	return nil
}

// pendingArtifacts lists the *.txt artifacts currently awaiting a match, in
// directory order.
func (m *Matcher) pendingArtifacts() []string {
	entries, err := os.ReadDir(m.cfg.Extracted)
	if err != nil {
		m.logger.Error("pipeline.match.scan_error", "dir", m.cfg.Extracted, "error", err)
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		out = append(out, filepath.Join(m.cfg.Extracted, e.Name()))
	}
	return out
}

func (m *Matcher) noteExhaustion(name string) {
	if m.cfg.MaxAttempts > 0 && m.attempts[name] == m.cfg.MaxAttempts {
		m.logger.Warn("pipeline.match.retry_budget_exhausted",
			"artifact", name,
			"attempts", m.attempts[name],
		)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
