package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Runner coordinates the two stages sequentially: one extraction pass over
// all eligible files, then (only when that pass produced artifacts) one
// matching pass over all pending artifacts. Between cycles it sleeps for the
// configured interval or wakes early for a watcher event.
type Runner struct {
	tracker *Tracker
	matcher *Matcher
	sleep   time.Duration
	events  <-chan string // optional; nil disables event-driven wakeups
	logger  *slog.Logger
}

func NewRunner(tracker *Tracker, matcher *Matcher, sleep time.Duration, events <-chan string, logger *slog.Logger) *Runner {
	if sleep <= 0 {
		sleep = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{tracker: tracker, matcher: matcher, sleep: sleep, events: events, logger: logger}
}

// Run polls until the context is cancelled. There is no cancellation
// mid-pass: a pass that started finishes its current file transitions, and
// because every transition is durable and idempotent, an interrupted process
// is safe to resume.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("pipeline.runner.start", "sleep", r.sleep.String())
	for {
		r.RunCycle(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("pipeline.runner.stop")
			return nil
		case path, ok := <-r.events:
			if ok {
				r.HandleFile(ctx, path)
			}
		case <-time.After(r.sleep):
		}
	}
}

// RunCycle executes one extraction pass and, if it produced artifacts, one
// matching pass.
func (r *Runner) RunCycle(ctx context.Context) {
	if n := r.tracker.RunExtractionPass(ctx); n > 0 {
		r.matcher.RunMatchingPass(ctx)
	}
}

// HandleFile is the ad-hoc single-file run triggered by a watcher event: the
// same state machine as a full cycle, scoped to one file.
func (r *Runner) HandleFile(ctx context.Context, path string) {
	r.logger.Info("pipeline.runner.event", "path", path)
	if r.tracker.ProcessFile(ctx, path) {
		r.matcher.RunMatchingPass(ctx)
	}
}
