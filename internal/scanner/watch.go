package scanner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a watcher waits after the last change before reporting.
const DefaultDebounce = 2 * time.Second

// Watcher reports markdown changes under a set of roots, coalescing bursts of events per
// root.
type Watcher struct {
	Debounce time.Duration
	Log      *slog.Logger
}

// NewWatcher returns a watcher with the given debounce; debounce <= 0 means
// DefaultDebounce.
func NewWatcher(debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{Debounce: debounce, Log: log}
}

// Run watches roots recursively until ctx is done and calls onChange(root) once per burst
// of markdown changes under root. onChange runs on the watcher goroutine.
func (w *Watcher) Run(ctx context.Context, roots []string, onChange func(root string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer fw.Close()

	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		a, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", root, err)
		}
		if err := addTree(fw, a); err != nil {
			return err
		}
		abs = append(abs, a)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !hidden(ev.Name) {
					if err := addTree(fw, ev.Name); err != nil {
						w.Log.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !markdownEvent(ev) {
				continue
			}
			root := owningRoot(abs, ev.Name)
			if root == "" {
				continue
			}
			w.Log.Debug("markdown changed", "path", ev.Name, "op", ev.Op.String())
			pending[root] = true
			timer.Reset(w.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("watcher error", "error", err)

		case <-timer.C:
			for _, root := range abs {
				if pending[root] {
					delete(pending, root)
					onChange(root)
				}
			}
		}
	}
}

// markdownEvent reports whether ev changes the content of a visible markdown file.
func markdownEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return IsMarkdown(ev.Name) && !hidden(ev.Name)
}

// addTree watches dir and every non-hidden directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("cannot watch %s: %w", p, err)
		}
		return nil
	})
}

func owningRoot(roots []string, p string) string {
	for _, r := range roots {
		if rel, err := filepath.Rel(r, p); err == nil && !strings.HasPrefix(rel, "..") {
			return r
		}
	}
	return ""
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
