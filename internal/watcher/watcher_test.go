package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fireCounter records change callbacks.
type fireCounter struct {
	mu    sync.Mutex
	count int
}

func (f *fireCounter) fire(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

func (f *fireCounter) fired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)
	return func() {
		stop()
		<-done
	}
}

func TestWatcher_FiresAfterChange(t *testing.T) {
	dir := t.TempDir()
	counter := &fireCounter{}
	w := New(dir, counter.fire, WithDebounce(50*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()

	err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return counter.fired() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_BurstIsDebouncedToOneFire(t *testing.T) {
	dir := t.TempDir()
	counter := &fireCounter{}
	w := New(dir, counter.fire, WithDebounce(100*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()

	for _, name := range []string{"a.py", "b.py", "c.py"} {
		err := os.WriteFile(filepath.Join(dir, name), []byte("pass\n"), 0o644)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return counter.fired() >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// Wait out another debounce window; no further fires should arrive.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, counter.fired())
}

func TestWatcher_IgnoredDirectoryDoesNotFire(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	counter := &fireCounter{}
	w := New(dir, counter.fire,
		WithDebounce(50*time.Millisecond),
		WithIgnorePatterns([]string{".git"}))
	stop := startWatcher(t, w)
	defer stop()

	err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref\n"), 0o644)
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, counter.fired())
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	counter := &fireCounter{}
	w := New(dir, counter.fire, WithDebounce(50*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(150 * time.Millisecond)
	before := counter.fired()

	err := os.WriteFile(filepath.Join(sub, "util.py"), []byte("pass\n"), 0o644)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return counter.fired() > before
	}, 2*time.Second, 20*time.Millisecond)
}
