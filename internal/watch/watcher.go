package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

// Config for the incoming-folder watcher.
type Config struct {
	Dir         string
	AllowedExts map[string]struct{} // lowercased sans '.'
	// Debounce coalesces rapid create/write bursts so a file is emitted once
	// it has settled, not on every partial write.
	Debounce time.Duration
}

// Start watches the incoming folder (non-recursively) and emits paths of
// accepted files. The channels close when the context is cancelled.
func Start(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Dir == "" {
		return nil, nil, errors.New("no watch dir provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		logger.Error("watch.add_failed", "dir", cfg.Dir, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watch.close_error", "error", err)
			}
		}()

		var timer *time.Timer
		var settle <-chan time.Time
		pending := map[string]struct{}{}

		for {
			select {
			case <-ctx.Done():
				return
			case e := <-w.Events:
				if !allowed(e.Name, cfg.AllowedExts) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("watch.event", "path", e.Name, "op", e.Op.String())
				pending[e.Name] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
					settle = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(cfg.Debounce)
				}
			case <-settle:
				for p := range pending {
					select {
					case evCh <- p:
					default:
					}
					delete(pending, p)
				}
			case err := <-w.Errors:
				logger.Error("watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	logger.Info("watch.started", "dir", cfg.Dir, "extensions", len(cfg.AllowedExts))
	return evCh, errCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	if exts == nil {
		return false
	}
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
