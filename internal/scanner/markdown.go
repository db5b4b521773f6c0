package scanner

import (
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kamusis/taskcap-cli/internal/search/index"
)

var (
	taskRe      = regexp.MustCompile(`^\s*[-*] \[([ xX])\] (.*)$`)
	headerRe    = regexp.MustCompile(`^#+\s+(.+)$`)
	tagRe       = regexp.MustCompile(`(?:^|[^\w&])#(\w+)`)
	mentionRe   = regexp.MustCompile(`(?:^|[^\w.])@(\w+)`)
	dueRe       = regexp.MustCompile(`(?i)\bdue:?\s*(\d{4}-\d{2}-\d{2}|today|tomorrow|\d{1,2}/\d{1,2}/\d{4})`)
	priorityRe  = regexp.MustCompile(`(?i)\bpriority:?\s*(high|medium|low)\b`)
	projectRe   = regexp.MustCompile(`(?i)\bproject(?::\s*|\s+)([^\s,]+)`)
	milestoneRe = regexp.MustCompile(`(?i)\bmilestone(?::\s*|\s+)([^\s,]+)`)
)

// MarkdownTask is one checklist item found in a markdown file.
type MarkdownTask struct {
	Content   string
	Status    string
	Section   string
	DueDate   string
	Priority  string
	Project   string
	Milestone string
	Tags      []string
	Mentions  []string
}

// MarkdownFile is the parsed content of one markdown file.
type MarkdownFile struct {
	Path        string
	Modified    time.Time
	FrontMatter map[string]any
	Headers     []string
	Tags        []string
	Mentions    []string
	Tasks       []MarkdownTask
}

// ParseMarkdown extracts headers, tags, mentions and checklist tasks from content.
// A front matter project or tags apply to every task of the file.
func ParseMarkdown(path string, content string, modified time.Time) MarkdownFile {
	fm, body := splitFrontmatter(content)
	f := MarkdownFile{
		Path:        path,
		Modified:    modified,
		FrontMatter: fm,
		Headers:     []string{},
		Tags:        uniq(append(frontmatterList(fm, "tags"), submatches(tagRe, body)...)),
		Mentions:    uniq(submatches(mentionRe, body)),
		Tasks:       []MarkdownTask{},
	}
	defaultProject := frontmatterString(fm, "project")
	defaultTags := frontmatterList(fm, "tags")

	section := ""
	for _, ln := range strings.Split(body, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if m := headerRe.FindStringSubmatch(ln); m != nil {
			section = strings.TrimSpace(m[1])
			f.Headers = append(f.Headers, section)
			continue
		}
		m := taskRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		t := MarkdownTask{
			Content:   text,
			Status:    "pending",
			Section:   section,
			DueDate:   firstMatch(dueRe, text),
			Priority:  strings.ToLower(firstMatch(priorityRe, text)),
			Project:   firstMatch(projectRe, text),
			Milestone: firstMatch(milestoneRe, text),
			Tags:      uniq(append(append([]string{}, defaultTags...), submatches(tagRe, text)...)),
			Mentions:  uniq(submatches(mentionRe, text)),
		}
		if strings.EqualFold(m[1], "x") {
			t.Status = "completed"
		}
		if t.Project == "" {
			t.Project = defaultProject
		}
		f.Tasks = append(f.Tasks, t)
	}
	return f
}

// TaskID returns the stable record id of the i-th task of a file.
func TaskID(path string, i int, content string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path + "|" + strconv.Itoa(i) + "|" + content))
	return int64(h.Sum64() & math.MaxInt64)
}

// TaskRecords converts the tasks of f into task records.
func (f MarkdownFile) TaskRecords() []index.Record {
	out := make([]index.Record, 0, len(f.Tasks))
	for i, t := range f.Tasks {
		md := map[string]any{
			"type":      "markdown_task",
			"file_path": f.Path,
			"status":    t.Status,
			"tags":      t.Tags,
			"mentions":  t.Mentions,
		}
		for k, v := range map[string]string{
			"section":   t.Section,
			"due_date":  t.DueDate,
			"priority":  t.Priority,
			"project":   t.Project,
			"milestone": t.Milestone,
		} {
			if v != "" {
				md[k] = v
			}
		}
		out = append(out, index.Record{ID: TaskID(f.Path, i, t.Content), Content: t.Content, Metadata: md})
	}
	return out
}

// FileRecord summarizes f as a projects record.
func (f MarkdownFile) FileRecord(id int64) index.Record {
	content := fmt.Sprintf("File: %s Headers: %s Tags: %s",
		filepath.Base(f.Path), strings.Join(f.Headers, " > "), strings.Join(f.Tags, ", "))
	return index.Record{
		ID:      id,
		Content: content,
		Metadata: map[string]any{
			"type":     "markdown_file",
			"path":     f.Path,
			"tags":     f.Tags,
			"headers":  f.Headers,
			"modified": f.Modified.UTC().Format(time.RFC3339),
		},
	}
}

// DiscoverMarkdown walks root for .md and .markdown files and parses each one. Files
// that cannot be read are logged and skipped.
func DiscoverMarkdown(root string, log *slog.Logger) ([]MarkdownFile, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot stat markdown directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("markdown path is not a directory: %s", root)
	}

	var out []MarkdownFile
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !IsMarkdown(path) {
			return nil
		}

		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping markdown file", "path", path, "error", err)
			return nil
		}
		var mod time.Time
		if fi, err := d.Info(); err == nil {
			mod = fi.ModTime()
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		out = append(out, ParseMarkdown(filepath.ToSlash(abs), string(b), mod))
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", root, err)
	}
	return out, nil
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MarkdownResult counts what one markdown scan added.
type MarkdownResult struct {
	Files int
	Tasks int
	Added int
}

// MarkdownScanner indexes markdown checklists as tasks and file summaries as project
// context.
type MarkdownScanner struct {
	Log *slog.Logger
}

// NewMarkdownScanner returns a scanner logging to log.
func NewMarkdownScanner(log *slog.Logger) *MarkdownScanner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MarkdownScanner{Log: log}
}

// Scan parses every markdown file under root. Tasks whose id is already indexed and
// files whose path already has a summary are skipped; the rest are added in one batch per
// corpus. A file's summary is written once and not refreshed when the file changes.
func (s *MarkdownScanner) Scan(idx *index.Index, root string) (MarkdownResult, error) {
	files, err := DiscoverMarkdown(root, s.Log)
	if err != nil {
		return MarkdownResult{}, err
	}
	res := MarkdownResult{Files: len(files)}

	var tasks []index.Record
	taken := make(map[int64]bool)
	for _, f := range files {
		for _, r := range f.TaskRecords() {
			res.Tasks++
			if taken[r.ID] || idx.Tasks().HasID(r.ID) {
				continue
			}
			taken[r.ID] = true
			tasks = append(tasks, r)
		}
	}

	known := make(map[string]bool)
	for _, r := range idx.Projects().Records() {
		if r.Metadata["type"] == "markdown_file" {
			if p, ok := r.Metadata["path"].(string); ok {
				known[p] = true
			}
		}
	}
	next := idx.Projects().NextID()
	var summaries []index.Record
	for _, f := range files {
		if known[f.Path] {
			continue
		}
		known[f.Path] = true
		summaries = append(summaries, f.FileRecord(next))
		next++
	}

	if err := idx.Tasks().Add(tasks...); err != nil {
		return res, err
	}
	if err := idx.Projects().Add(summaries...); err != nil {
		return res, err
	}
	res.Added = len(tasks)
	s.Log.Debug("markdown indexed", "root", root, "files", res.Files, "tasks", res.Tasks, "added", res.Added)
	return res, nil
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

func uniq(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
