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

	"sitemapgen/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "computerNotes.js")
	require.NoError(t, os.WriteFile(path, []byte(`{ id: 'a' }`), 0644))

	return dir, path
}

func TestWatcher_RebuildsOnWrite(t *testing.T) {
	_, path := setup(t)

	calls := make(chan struct{}, 10)
	w, err := New(path, 20*time.Millisecond, func(context.Context) error {
		calls <- struct{}{}
		return nil
	}, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`{ id: 'a' }, { id: 'b' }`), 0644))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was not triggered")
	}

	assert.Eventually(t, func() bool { return w.Stats().Rebuilds == 1 }, time.Second, 10*time.Millisecond)
	assert.Positive(t, w.Stats().Events)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	_, path := setup(t)

	var calls atomic.Int32
	w, err := New(path, 300*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{ id: 'burst' }`), 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)

	assert.Less(t, calls.Load(), int32(5))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, path := setup(t)

	var calls atomic.Int32
	w, err := New(path, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.js"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)

	assert.Zero(t, calls.Load())
}

func TestWatcher_KeepsRunningAfterFailure(t *testing.T) {
	_, path := setup(t)

	var calls atomic.Int32
	w, err := New(path, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("destination write failed")
	}, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("one"), 0644))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	stats := w.Stats()
	assert.Equal(t, 2, stats.Failures)
	assert.Error(t, stats.LastError)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	_, path := setup(t)

	w, err := New(path, 10*time.Millisecond, func(context.Context) error { return nil }, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not exit")
	}

	w.Stop()
	w.Stop()
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "notes.js"), time.Millisecond,
		func(context.Context) error { return nil }, logger.Discard())
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.watcher.Add(t.TempDir()), fsnotify.ErrClosed, "OS watcher is released")

	// Stop is a no-op after a failed Start.
	w.Stop()
}
