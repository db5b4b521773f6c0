package cmd

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/kamusis/taskcap-cli/internal/search"
	"github.com/kamusis/taskcap-cli/internal/search/index"
)

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" auth", "#auth", "", "bug", "#"})
	want := []string{"auth", "bug"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeTags = %v, want %v", got, want)
	}
}

func TestScanTargets(t *testing.T) {
	got, err := scanTargets([]string{"a"}, []string{"b"}, "markdown_dirs")
	if err != nil || !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("args should win, got %v, %v", got, err)
	}
	got, err = scanTargets(nil, []string{"b"}, "markdown_dirs")
	if err != nil || !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("configured fallback, got %v, %v", got, err)
	}
	if _, err := scanTargets(nil, nil, "markdown_dirs"); err == nil {
		t.Error("expected error when nothing is configured")
	}
}

func TestDescribe(t *testing.T) {
	r := search.Result{Metadata: map[string]any{
		"project": "web",
		"status":  "pending",
		"tags":    []any{"auth", "bug"},
	}}
	if got, want := describe(r), "project=web  status=pending  tags=auth,bug"; got != want {
		t.Errorf("describe = %q, want %q", got, want)
	}
	if got := describe(search.Result{}); got != "" {
		t.Errorf("describe of empty metadata = %q", got)
	}
}

func TestAcquireIndexLock_Contended(t *testing.T) {
	dir := t.TempDir()
	unlock, err := acquireIndexLock(dir, time.Second)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := acquireIndexLock(dir, 300*time.Millisecond); err == nil {
		t.Fatal("second lock should time out while the first is held")
	}

	unlock()
	unlock2, err := acquireIndexLock(dir, time.Second)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}

func TestAddCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKCAP_INDEX_DIR", "")
	dir := filepath.Join(t.TempDir(), "vector_db")

	rootCmd.SetArgs([]string{"--dir", dir, "add", "Fix", "login", "timeout", "--tag", "auth", "--priority", "HIGH"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("add: %v", err)
	}
	t.Cleanup(func() {
		flagDir, flagAddTags, flagAddPriority = "", nil, ""
	})

	idx, err := index.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	recs := idx.Tasks().Records()
	if len(recs) != 1 {
		t.Fatalf("want 1 task, got %d", len(recs))
	}
	r := recs[0]
	if r.ID != 1 || r.Content != "Fix login timeout" {
		t.Errorf("unexpected record %+v", r)
	}
	if got := search.Strings(r.Metadata, "tags"); !reflect.DeepEqual(got, []string{"auth"}) {
		t.Errorf("tags = %v", got)
	}
	if got := search.String(r.Metadata, "priority"); got != "high" {
		t.Errorf("priority = %q", got)
	}
}

func TestPrintLine(t *testing.T) {
	var buf bytes.Buffer
	printLine(&buf, "✓", "", "done")
	printLine(&buf, "⚠", "tasks", "stale")
	if got, want := buf.String(), "  ✓  done\n  ⚠  [tasks] stale\n"; got != want {
		t.Errorf("printLine output = %q, want %q", got, want)
	}
}
