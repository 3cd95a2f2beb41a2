// Package watcher rebuilds the index when files under the repository root
// change. Events are debounced so a burst of writes (editor save, git
// checkout) triggers a single rebuild.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/modelcode-ai/codeqa-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event before
// firing the change callback.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a directory tree and invokes a callback after changes
// have settled.
type Watcher struct {
	root     string
	ignore   map[string]struct{}
	debounce time.Duration
	onChange func(ctx context.Context)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithIgnorePatterns sets the directory names excluded from watching.
func WithIgnorePatterns(patterns []string) Option {
	return func(w *Watcher) {
		w.ignore = make(map[string]struct{}, len(patterns))
		for _, p := range patterns {
			w.ignore[p] = struct{}{}
		}
	}
}

// New creates a watcher over root that calls onChange after events settle.
func New(root string, onChange func(ctx context.Context), opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ignore:   map[string]struct{}{},
		debounce: DefaultDebounce,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until the context is cancelled. Newly created directories are
// added to the watch set as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.skip(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.onChange(ctx)
		}
	}
}

// addTree registers dir and every non-ignored subdirectory with the watcher.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir {
			if _, ignored := w.ignore[d.Name()]; ignored {
				return filepath.SkipDir
			}
		}
		return fw.Add(path)
	})
}

// skip reports whether a path falls under an ignored directory.
func (w *Watcher) skip(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for rel != "." && rel != "" {
		if _, ignored := w.ignore[filepath.Base(rel)]; ignored {
			return true
		}
		rel = filepath.Dir(rel)
	}
	return false
}
