// Package watch re-runs analysis when source files under a root change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/TFMV/surrealmetrics/lang"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 100 * time.Millisecond

// ChangeFunc is called with the sorted, root-relative paths that changed since the
// previous call.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches a directory tree for changes to recognized source files.
type Watcher struct {
	Root     string
	Registry *lang.Registry
	Exclude  []string
	Debounce time.Duration
	Logger   *slog.Logger

	ready chan struct{}
}

// New creates a watcher for root.
func New(root string, registry *lang.Registry, exclude []string) *Watcher {
	if registry == nil {
		registry = lang.NewRegistry()
	}
	return &Watcher{
		Root:     root,
		Registry: registry,
		Exclude:  exclude,
		Debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Run watches until ctx is cancelled, calling onChange after each settled burst of
// changes. Errors from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Root, err)
	}
	if w.ready != nil {
		close(w.ready)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	pending := make(map[string]struct{})
	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			rel, relevant := w.relevant(fsw, ev)
			if !relevant {
				continue
			}
			pending[rel] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			w.logger().Debug("source files changed", "files", len(changed))
			if err := onChange(ctx, changed); err != nil {
				w.logger().Warn("re-analysis failed", "error", err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger().Warn("watch error", "error", err)
		}
	}
}

// relevant reports whether ev touches a recognized, non-excluded source file, and
// starts watching newly created directories.
func (w *Watcher) relevant(fsw *fsnotify.Watcher, ev fsnotify.Event) (string, bool) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return "", false
	}

	rel := w.rel(ev.Name)
	if w.excluded(rel) {
		return "", false
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsw, ev.Name); err != nil {
				w.logger().Warn("failed to watch new directory", "path", rel, "error", err)
			}
			return rel, true
		}
	}

	if _, ok := w.Registry.ForFile(ev.Name); !ok {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip inaccessible entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.Root && w.excluded(w.rel(path)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) excluded(rel string) bool {
	for _, pattern := range w.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
