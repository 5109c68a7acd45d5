package tier

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher turns file-change events into registry refreshes. It is an
// opt-in companion to FileSource: the registry itself never watches or
// polls anything.
//
// Events are debounced so that editors writing a file in several steps
// trigger a single refresh.
type Watcher struct {
	path     string
	registry *Registry
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for the given tier file. A zero debounce
// defaults to 100ms.
func NewWatcher(path string, registry *Registry, logger *slog.Logger, debounce time.Duration) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		registry: registry,
		logger:   logger.With("component", "admission.tier.watcher"),
		debounce: debounce,
	}
}

// Watch blocks, refreshing the registry whenever the tier file changes,
// until the context is cancelled. Refresh failures keep the previous
// configuration and are logged, not fatal.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory rather than the file: editors and config
	// management commonly replace the file via rename, which drops a
	// file-level watch.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("tier file watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("tier file watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := w.registry.Refresh(ctx); err != nil {
				w.logger.Warn("tier refresh failed, keeping previous configuration",
					"error", err,
				)
				continue
			}
			w.logger.Info("tier configuration refreshed", "path", w.path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
