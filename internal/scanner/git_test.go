package scanner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/taskcap-cli/internal/search/index"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	if !GitAvailable() {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		c := exec.Command("git", append([]string{"-C", repo}, args...)...)
		c.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Dana", "GIT_AUTHOR_EMAIL=dana@example.com",
			"GIT_COMMITTER_NAME=Dana", "GIT_COMMITTER_EMAIL=dana@example.com",
		)
		out, err := c.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	write := func(name, content string) {
		t.Helper()
		p := filepath.Join(repo, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	run("init", "-q")
	write("README.md", "hello\n")
	run("add", ".")
	run("commit", "-q", "-m", "initial import")
	write("auth/login.go", "package auth\n")
	run("add", ".")
	run("commit", "-q", "-m", "fix/login-timeout handle expired sessions", "-m", "longer body")
	return repo
}

func TestGitScanner_Commits(t *testing.T) {
	repo := gitRepo(t)

	commits, err := NewGitScanner(0, nil).Commits(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	newest := commits[0]
	assert.Len(t, newest.Hash, 40)
	assert.Equal(t, "Dana <dana@example.com>", newest.Author)
	assert.Equal(t, "fix/login-timeout handle expired sessions\n\nlonger body", newest.Message)
	assert.Equal(t, []string{"auth/login.go"}, newest.Files)
	assert.False(t, newest.Date.IsZero())

	assert.Equal(t, "initial import", commits[1].Message)
}

func TestGitScanner_MaxCommits(t *testing.T) {
	repo := gitRepo(t)

	commits, err := NewGitScanner(1, nil).Commits(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, []string{"auth/login.go"}, commits[0].Files)
}

func TestGitScanner_ScanSkipsKnownCommits(t *testing.T) {
	repo := gitRepo(t)
	idx, err := index.Open(t.TempDir())
	require.NoError(t, err)
	s := NewGitScanner(10, nil)

	added, err := s.Scan(context.Background(), idx.Projects(), repo)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.Scan(context.Background(), idx.Projects(), repo)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, idx.Projects().Len())

	hits, err := idx.Projects().Query("login", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "commit", hits[0].Metadata["type"])
	assert.Equal(t, []string{"auth/login.go"}, hits[0].Metadata["files"])
	assert.Equal(t, int64(1), hits[0].ID)
}

func TestGitScanner_NotARepo(t *testing.T) {
	if !GitAvailable() {
		t.Skip("git not installed")
	}
	_, err := NewGitScanner(0, nil).Commits(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestParseCommit_Malformed(t *testing.T) {
	_, err := parseCommit("abc" + fieldSep + "only two")
	assert.Error(t, err)

	_, err = parseCommit("abc" + fieldSep + "a" + fieldSep + "not-a-date" + fieldSep + "msg" + fieldSep)
	assert.Error(t, err)
}

func TestCommit_Content(t *testing.T) {
	c := Commit{Message: "update docs", Files: []string{"README.md", "docs/a.md"}}
	assert.Equal(t, "update docs README.md docs/a.md", c.Content())
	assert.Equal(t, "root", Commit{Message: "root"}.Content())
}
