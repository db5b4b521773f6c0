// Package scanner feeds external sources into the index: git history into the projects
// corpus and markdown checklists into the tasks corpus.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kamusis/taskcap-cli/internal/search/index"
)

// DefaultMaxCommits is the number of commits read per repository when unset.
const DefaultMaxCommits = 100

const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// Commit is one entry of a repository's history.
type Commit struct {
	Hash    string
	Author  string
	Date    time.Time
	Message string
	Files   []string
}

// Content is the indexed text of a commit: its message followed by the changed paths.
func (c Commit) Content() string {
	return strings.TrimSpace(c.Message + " " + strings.Join(c.Files, " "))
}

// Record converts c into a projects record.
func (c Commit) Record(id int64, repo string) index.Record {
	files := c.Files
	if files == nil {
		files = []string{}
	}
	return index.Record{
		ID:      id,
		Content: c.Content(),
		Metadata: map[string]any{
			"type":    "commit",
			"commit":  c.Hash,
			"message": c.Message,
			"author":  c.Author,
			"date":    c.Date.Format(time.RFC3339),
			"files":   files,
			"repo":    repo,
		},
	}
}

// GitScanner reads commit history with the git binary.
type GitScanner struct {
	MaxCommits int
	Log        *slog.Logger
}

// NewGitScanner returns a scanner reading up to maxCommits commits per repository.
func NewGitScanner(maxCommits int, log *slog.Logger) *GitScanner {
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCommits
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GitScanner{MaxCommits: maxCommits, Log: log}
}

// Commits returns the most recent commits reachable from HEAD, newest first. Entries that
// cannot be parsed are logged and skipped.
func (s *GitScanner) Commits(ctx context.Context, repo string) ([]Commit, error) {
	format := recordSep + strings.Join([]string{"%H", "%an <%ae>", "%cI", "%B"}, fieldSep) + fieldSep
	out, err := gitOutput(ctx, repo, "log", "HEAD",
		"-n", strconv.Itoa(s.MaxCommits),
		"--name-only",
		"--format="+format,
	)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, chunk := range strings.Split(out, recordSep) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		c, err := parseCommit(chunk)
		if err != nil {
			s.Log.Warn("skipping commit", "repo", repo, "error", err)
			continue
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func parseCommit(chunk string) (Commit, error) {
	fields := strings.Split(chunk, fieldSep)
	if len(fields) != 5 {
		return Commit{}, fmt.Errorf("unexpected log entry with %d fields", len(fields))
	}
	hash := strings.TrimSpace(fields[0])
	if hash == "" {
		return Commit{}, fmt.Errorf("log entry without hash")
	}
	date, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[2]))
	if err != nil {
		return Commit{}, fmt.Errorf("commit %s: invalid date: %w", hash, err)
	}

	files := []string{}
	for _, ln := range strings.Split(fields[4], "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			files = append(files, ln)
		}
	}
	return Commit{
		Hash:    hash,
		Author:  strings.TrimSpace(fields[1]),
		Date:    date,
		Message: strings.TrimSpace(fields[3]),
		Files:   files,
	}, nil
}

// Scan adds every commit of repo not yet present in the projects corpus, in one batch.
// It returns the number of records added.
func (s *GitScanner) Scan(ctx context.Context, projects *index.Corpus, repo string) (int, error) {
	abs, err := filepath.Abs(repo)
	if err != nil {
		return 0, fmt.Errorf("cannot resolve %s: %w", repo, err)
	}
	commits, err := s.Commits(ctx, abs)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	for _, r := range projects.Records() {
		if h, ok := r.Metadata["commit"].(string); ok {
			seen[h] = true
		}
	}

	next := projects.NextID()
	var recs []index.Record
	for _, c := range commits {
		if seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		recs = append(recs, c.Record(next, abs))
		next++
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := projects.Add(recs...); err != nil {
		return 0, err
	}
	s.Log.Debug("commits indexed", "repo", abs, "added", len(recs), "read", len(commits))
	return len(recs), nil
}

// gitOutput runs git -C repoPath with args and returns stdout.
func gitOutput(ctx context.Context, repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.String(), nil
}

// GitAvailable reports whether the git binary is on PATH.
func GitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}
