// Package watch re-runs a callback when markdown sources change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Options configures a Watcher.
type Options struct {
	Debounce      time.Duration
	IncludeHidden bool
}

// Watcher observes a single file or a directory tree.
type Watcher struct {
	logger        *slog.Logger
	watcher       *fsnotify.Watcher
	target        string
	file          string
	debounce      time.Duration
	includeHidden bool
}

// New watches target. A file is observed through its parent directory so
// editors that save by rename keep triggering changes. A directory is
// observed recursively.
func New(logger *slog.Logger, target string, opts Options) (*Watcher, error) {
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("watch target must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve watch target: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat watch target: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		logger:        logger.With("component", "watcher"),
		watcher:       fw,
		target:        abs,
		debounce:      opts.Debounce,
		includeHidden: opts.IncludeHidden,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if info.IsDir() {
		err = w.watchRecursive(abs)
	} else {
		w.file = abs
		err = fw.Add(filepath.Dir(abs))
	}
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls onChange after each debounced burst of relevant events until ctx
// is done. Errors from onChange are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("err", err))
		case <-timer.C:
			if err := onChange(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Warn("rebuild failed", slog.Any("err", err))
			}
		}
	}
}

// handleEvent reports whether event should schedule a rebuild.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Name == "" || event.Op&relevantOps == 0 {
		return false
	}
	name := filepath.Clean(event.Name)

	w.logger.Debug("fsnotify event", slog.String("path", w.relativePath(name)), slog.String("op", event.Op.String()))

	if w.file != "" {
		return name == w.file
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			_ = w.watchRecursive(name)
			return true
		}
	}
	if !w.includeHidden && hidden(w.relativePath(name)) {
		return false
	}
	return true
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !w.includeHidden && strings.HasPrefix(d.Name(), ".") && path != w.target {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", slog.String("path", path), slog.Any("err", err))
		}
		return nil
	})
}

func (w *Watcher) relativePath(abs string) string {
	base := w.target
	if w.file != "" {
		base = filepath.Dir(w.file)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
