package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create markdown", fsnotify.Event{Name: "/n/todo.md", Op: fsnotify.Create}, true},
		{"write markdown", fsnotify.Event{Name: "/n/todo.markdown", Op: fsnotify.Write}, true},
		{"remove markdown", fsnotify.Event{Name: "/n/todo.md", Op: fsnotify.Remove}, true},
		{"rename markdown", fsnotify.Event{Name: "/n/todo.md", Op: fsnotify.Rename}, true},
		{"chmod ignored", fsnotify.Event{Name: "/n/todo.md", Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: "/n/todo.txt", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: "/n/.todo.md", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markdownEvent(tt.ev))
		})
	}
}

func TestOwningRoot(t *testing.T) {
	roots := []string{"/notes", "/work"}
	assert.Equal(t, "/notes", owningRoot(roots, "/notes/a/b.md"))
	assert.Equal(t, "/work", owningRoot(roots, "/work/c.md"))
	assert.Equal(t, "", owningRoot(roots, "/elsewhere/d.md"))
}

func TestWatcher_ReportsMarkdownChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan string, 4)
	w := NewWatcher(50*time.Millisecond, nil)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, []string{root}, func(r string) { changed <- r })
	}()

	want, err := filepath.Abs(root)
	require.NoError(t, err)

	// Keep writing until the watcher has registered its directories.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case got := <-changed:
			assert.Equal(t, want, got)
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(sub, "todo.md"), []byte("- [ ] Water plants\n"), 0o644))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := NewWatcher(0, nil)
	assert.Equal(t, DefaultDebounce, w.Debounce)
	err := w.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, func(string) {})
	assert.Error(t, err)
}
