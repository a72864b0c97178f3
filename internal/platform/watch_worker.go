package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tagvault/pkg/loop"
)

// ConfigWatcher reloads the config file on change and applies the reloadable
// settings to a running loop. A file that fails to load is reported and the
// previous settings stay in force.
type ConfigWatcher struct {
	*worker.BaseWorker
	path    string
	loop    *loop.Loop
	logger  *slog.Logger
	onError func(error)
	applied chan Config
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewConfigWatcher creates a watcher for the config file at path.
// onError may be nil.
func NewConfigWatcher(path string, l *loop.Loop, logger *slog.Logger, onError func(error)) *ConfigWatcher {
	return &ConfigWatcher{
		BaseWorker: worker.NewBaseWorker("config-watcher"),
		path:       path,
		loop:       l,
		logger:     logger,
		onError:    onError,
		applied:    make(chan Config, 1),
	}
}

// Applied delivers each configuration once it has been applied. Only the latest one is
// kept when nobody reads.
func (w *ConfigWatcher) Applied() <-chan Config {
	return w.applied
}

func (w *ConfigWatcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors replace files by rename, so watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *ConfigWatcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *ConfigWatcher) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.path,
		}
	})
}

// Reload loads the file and applies it to the loop.
func (w *ConfigWatcher) Reload() error {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	if err := w.loop.Apply(settings); err != nil {
		return err
	}
	if w.logger != nil {
		w.logger.Info("config reloaded", "path", w.path, "reset_uids", len(settings.ResetUIDs), "resume_window", settings.ResumeWindow)
	}

	select {
	case <-w.applied:
	default:
	}
	w.applied <- cfg
	return nil
}

func (w *ConfigWatcher) handleError(err error) {
	if w.logger != nil {
		w.logger.Error("config reload failed", "path", w.path, "error", err)
	}
	if w.onError != nil {
		w.onError(err)
	}
}

func (w *ConfigWatcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("config watcher panic: %v", recovered)
			if w.logger == nil {
				return
			}
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("config watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("config watcher panic", "error", err)
			}
		}
	}()
	defer w.watcher.Close()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.handleError(err)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleError(wErr)
		}
	}
}
