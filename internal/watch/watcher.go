// Package watch re-runs generation when shader sources change.
package watch

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrClosed is returned by Run when the event loop ends before its context
// is cancelled, for example because the underlying watcher was closed.
var ErrClosed = errors.New("watch: watcher closed")

// RunFunc is invoked once per settled batch of changes.
type RunFunc func(ctx context.Context) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Runs          int
	Failures      int
	LastEventPath string
	LastEventType string
	LastEventTime time.Time
	LastError     string
}

// Watcher watches shader directories and triggers a RunFunc after changes
// to files with the shader extension have settled for the debounce window.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dirs     []string
	ext      string
	debounce time.Duration
	run      RunFunc
	logger   *zap.Logger
	pending  map[string]time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a Watcher for dirs. Nothing is watched until Start.
func New(dirs []string, ext string, debounce time.Duration, run RunFunc, logger *zap.Logger) (*Watcher, error) {
	if run == nil {
		return nil, errors.New("watch: run func is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		dirs:     dirs,
		ext:      ext,
		debounce: debounce,
		run:      run,
		logger:   logger,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds every directory and begins the event loop in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.logger.Debug("Watching directory", zap.String("dir", dir))
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the event loop, waits for it to exit and closes the underlying
// watcher. It is safe to call more than once.
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
		w.logger.Error("Failed to close watcher", zap.Error(err))
	}
	w.logger.Debug("Watcher stopped")
}

// Run starts the watcher and blocks until ctx is cancelled, then returns
// nil. If the event loop stops on its own first, Run returns ErrClosed.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-w.doneCh:
	}
	w.Stop()
	if ctx.Err() != nil {
		return nil
	}
	return ErrClosed
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	interval := w.debounce / 2
	if interval > 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

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
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Failures++
			w.stats.LastError = err.Error()
			w.mu.Unlock()

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("Watching new directory", zap.String("dir", event.Name))
			}
			return
		}
	}
	if !strings.HasSuffix(event.Name, w.ext) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}
	w.logger.Debug("Shader changed", zap.String("path", event.Name), zap.String("op", eventType))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	w.stats.LastEventTime = time.Now()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush runs once when every pending change is older than the debounce
// window. A burst of saves therefore produces a single run.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	changed := len(w.pending)
	clear(w.pending)
	w.mu.Unlock()

	w.logger.Info("Regenerating", zap.Int("changed", changed))
	err := w.run(ctx)

	w.mu.Lock()
	w.stats.Runs++
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Regeneration failed", zap.Error(err))
	}
}
