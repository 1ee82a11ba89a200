package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/ledgerflow/internal/config"
	"github.com/joseph-ayodele/ledgerflow/internal/extract"
	"github.com/joseph-ayodele/ledgerflow/internal/llm"
	"github.com/joseph-ayodele/ledgerflow/internal/pipeline"
	"github.com/joseph-ayodele/ledgerflow/internal/report"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

// ledgerflow-batch runs one extraction pass and one matching pass against the
// configured folders, then writes an XLSX summary of the matches archive.
func main() {
	var (
		cfgPath = flag.String("config", "", "path to config.yaml (default: search working directory)")
		out     = flag.String("out", "", "output XLSX path (default: <output folder>/matches_<timestamp>.xlsx)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureFolders(); err != nil {
		logger.Error("folder setup failed", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		stamp := time.Now().Format("20060102_150405")
		*out = filepath.Join(cfg.Folders.Output, fmt.Sprintf("matches_%s.xlsx", stamp))
	}

	ctx := context.Background()

	visionClient := llm.NewClient(llm.Config{
		Endpoint:  cfg.LLM.VisionEndpoint,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger)
	textClient := llm.NewClient(llm.Config{
		Endpoint:  cfg.LLM.TextEndpoint,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger)

	extractor := extract.NewExtractor(extract.Config{
		ImageExtensions: constants.ExtSet(cfg.Processing.ImageExtensions),
		PDFExtensions:   constants.ExtSet(cfg.Processing.PDFExtensions),
		OCRPrompt:       cfg.OCRPrompt,
	}, visionClient, logger)

	tracker := pipeline.NewTracker(pipeline.TrackerConfig{
		Incoming:     cfg.Folders.Incoming,
		Extracted:    cfg.Folders.Extracted,
		Processed:    cfg.Folders.Processed,
		Errors:       cfg.Folders.Errors,
		AcceptedExts: cfg.AcceptedExtensions(),
	}, extractor, logger)

	matcher := pipeline.NewMatcher(pipeline.MatcherConfig{
		Extracted:           cfg.Folders.Extracted,
		Matches:             cfg.Folders.Matches,
		LedgerFile:          cfg.Processing.LedgerFile,
		PromptTemplate:      cfg.ExtractionPrompt,
		ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
		MaxAttempts:         cfg.Matching.MaxAttempts,
	}, textClient, logger)

	extracted := tracker.RunExtractionPass(ctx)
	matcher.RunMatchingPass(ctx)

	svc := report.NewService(cfg.Folders.Matches, logger)
	xlsx, matches, err := svc.ExportXLSX()
	if err != nil {
		logger.Error("report export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("report write failed", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete", "extracted", extracted, "matches", matches, "report", *out)
	fmt.Printf("Batch complete: %d file(s) extracted, %d match(es) summarized\n", extracted, matches)
	fmt.Printf("Report: %s\n", *out)
}
