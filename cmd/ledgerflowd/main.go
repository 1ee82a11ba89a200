package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/ledgerflow/internal/config"
	"github.com/joseph-ayodele/ledgerflow/internal/extract"
	"github.com/joseph-ayodele/ledgerflow/internal/llm"
	"github.com/joseph-ayodele/ledgerflow/internal/pipeline"
	"github.com/joseph-ayodele/ledgerflow/internal/watch"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to config.yaml (default: search working directory)")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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

	logger.Info("configuration loaded",
		"incoming", cfg.Folders.Incoming,
		"extracted", cfg.Folders.Extracted,
		"matches", cfg.Folders.Matches,
		"ledger", cfg.Processing.LedgerFile,
		"vision_endpoint", cfg.LLM.VisionEndpoint,
		"text_endpoint", cfg.LLM.TextEndpoint,
		"sleep", cfg.Processing.SleepInterval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	events, watchErrs, err := watch.Start(ctx, watch.Config{
		Dir:         cfg.Folders.Incoming,
		AllowedExts: cfg.AcceptedExtensions(),
	}, logger)
	if err != nil {
		logger.Error("watcher start failed", "error", err)
		os.Exit(1)
	}
	go func() {
		for err := range watchErrs {
			logger.Warn("watcher error", "error", err)
		}
	}()

	runner := pipeline.NewRunner(tracker, matcher, cfg.Processing.SleepInterval, events, logger)
	if err := runner.Run(ctx); err != nil {
		logger.Error("runner failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
