package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWatcher(t *testing.T, dir string, run RunFunc) *Watcher {
	t.Helper()
	w, err := New([]string{dir}, ".fx", 50*time.Millisecond, run, zaptest.NewLogger(t))
	require.NoError(t, err)
	return w
}

func TestNewRequiresRunFunc(t *testing.T) {
	_, err := New(nil, ".fx", time.Second, nil, nil)
	assert.Error(t, err)
}

func TestHandleEventFiltersExtension(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error { return nil })
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: "a.fx", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "b.fx", Op: fsnotify.Chmod})

	stats := w.Stats()
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, "a.fx", stats.LastEventPath)
	assert.Equal(t, "modify", stats.LastEventType)
	assert.Len(t, w.pending, 1)
}

func TestFlushWaitsForQuietPeriod(t *testing.T) {
	var runs atomic.Int32
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error {
		runs.Add(1)
		return nil
	})
	defer w.watcher.Close()

	now := time.Now()
	w.pending["a.fx"] = now.Add(-time.Second)
	w.pending["b.fx"] = now
	w.flush(context.Background())
	assert.Equal(t, int32(0), runs.Load(), "a recent change holds back the batch")

	w.pending["b.fx"] = now.Add(-time.Second)
	w.flush(context.Background())
	assert.Equal(t, int32(1), runs.Load(), "a settled batch runs once")
	assert.Empty(t, w.pending)

	w.flush(context.Background())
	assert.Equal(t, int32(1), runs.Load())
}

func TestFlushRecordsFailures(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error {
		return errors.New("boom")
	})
	defer w.watcher.Close()

	w.pending["a.fx"] = time.Now().Add(-time.Second)
	w.flush(context.Background())

	stats := w.Stats()
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, "boom", stats.LastError)
}

func TestWatcherRunsOnChange(t *testing.T) {
	dir := t.TempDir()
	triggered := make(chan struct{}, 8)
	w := newTestWatcher(t, dir, func(context.Context) error {
		triggered <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.fx"), []byte("x\n"), 0644))

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger a run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.GreaterOrEqual(t, w.Stats().Runs, 1)
}

func TestRunReturnsErrClosedWhenLoopEnds(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error { return nil })
	// Closing the fsnotify watcher closes its event channels, ending the loop.
	require.NoError(t, w.watcher.Close())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the watcher closed")
	}
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}

func TestStopIsIdempotent(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), func(context.Context) error { return nil })
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
