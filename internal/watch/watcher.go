// Package watch regenerates the sitemap when the content source changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sitemapgen/internal/logger"
)

// RebuildFunc regenerates the sitemap. Errors are logged, never fatal.
type RebuildFunc func(ctx context.Context) error

// Stats tracks watcher activity.
type Stats struct {
	Events    int
	Rebuilds  int
	Failures  int
	LastError error
	LastBuild time.Time
}

// Watcher watches the directory of a single source file. Watching the
// directory instead of the file survives editors that save by rename.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *logger.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    Stats
}

// New creates a watcher for sourcePath.
func New(sourcePath string, debounce time.Duration, rebuild RebuildFunc, log *logger.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", sourcePath, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		rebuild:  rebuild,
		logger:   log.With("component", "watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block. On error the OS watcher is
// released and the Watcher cannot be restarted.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		if closeErr := w.watcher.Close(); closeErr != nil {
			w.logger.Error("failed to close watcher", "error", closeErr)
		}

		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	w.logger.Info("watching source", "path", w.path, "debounce", w.debounce)

	go w.run(ctx)

	return nil
}

// Stop ends the event loop and releases the OS watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", "error", err)
	}
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.relevant(event) {
				continue
			}

			w.mu.Lock()
			w.stats.Events++
			w.mu.Unlock()

			w.logger.Debug("source changed", "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			w.runRebuild(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}

	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) runRebuild(ctx context.Context) {
	err := w.rebuild(ctx)

	w.mu.Lock()
	w.stats.Rebuilds++
	w.stats.LastBuild = time.Now()
	w.stats.LastError = err

	if err != nil {
		w.stats.Failures++
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("rebuild failed", "error", err)
		return
	}

	w.logger.Info("rebuilt sitemap")
}
