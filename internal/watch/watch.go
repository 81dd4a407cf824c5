// Package watch re-runs a callback when source files change. Directories
// are watched recursively with fsnotify and bursts of events are debounced
// into a single call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// DefaultIgnore skips VCS metadata, build output and Fable's generated
// JavaScript, which the callback itself usually produces.
var DefaultIgnore = []string{
	"**/.git", "**/.git/**",
	"**/.fable", "**/.fable/**",
	"**/obj", "**/obj/**",
	"**/bin", "**/bin/**",
	"**/node_modules", "**/node_modules/**",
	"**/*.fs.js", "**/*.fs.js.map",
}

// Watcher watches a set of directory trees below a root.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithIgnore replaces the ignore patterns (doublestar, relative to root).
func WithIgnore(patterns ...string) Option {
	return func(w *Watcher) {
		w.ignore = patterns
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New starts watching paths (relative to root) recursively. Paths that do
// not exist are skipped; at least one must exist.
func New(root string, paths []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		watcher:  fsw,
		debounce: DefaultDebounce,
		ignore:   DefaultIgnore,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	added := 0
	for _, p := range paths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, p)
		}
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("watch path does not exist", zap.String("path", dir))
			continue
		}
		if err := w.addTree(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		added++
	}

	if added == 0 {
		fsw.Close()
		return nil, fmt.Errorf("none of the watch paths exist: %v", paths)
	}

	return w, nil
}

// Run calls onChange with the sorted changed paths after each burst of
// events. It blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	defer w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.logger.Debug("change detected", zap.Strings("paths", changed))
			onChange(ctx, changed)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}

// handleEvent reports whether the event counts as a change. New
// directories are added to the watch set.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Debug("watching new directory failed", zap.String("path", event.Name), zap.Error(err))
			}
		}
	}
	return true
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
