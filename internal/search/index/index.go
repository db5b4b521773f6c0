// Package index implements a small file-persisted similarity index over binary
// term-presence vectors.
//
// Text is normalized into lemmatized tokens, a sorted vocabulary is built over the whole
// corpus, every record is encoded as a binary vector against it, and queries are ranked
// by cosine similarity. Every insertion rebuilds the vocabulary and re-encodes the whole
// corpus, so vector widths always match the vocabulary.
//
// Two corpora are kept side by side: tasks and project history. Each lives in its own
// directory with records.json, vocab.blob, vectors.blob and index_manifest.json.
//
// The package performs no locking. Callers sharing one directory between processes must
// serialize access themselves.
package index

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Index holds the tasks and projects corpora rooted at one directory.
type Index struct {
	dir      string
	tasks    *Corpus
	projects *Corpus
}

type options struct {
	logger *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for load recovery and debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open loads both corpora from dir, creating the directories if needed. Missing or
// corrupt files are not an error: the affected corpus starts empty.
func Open(dir string, opts ...Option) (*Index, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, fn := range opts {
		fn(&o)
	}
	if dir == "" {
		return nil, fmt.Errorf("index dir is required")
	}

	x := &Index{dir: dir}
	for _, name := range []string{TasksCorpus, ProjectsCorpus} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create index dir: %w", err)
		}
	}
	x.tasks = openCorpus(filepath.Join(dir, TasksCorpus), TasksCorpus, o.logger)
	x.projects = openCorpus(filepath.Join(dir, ProjectsCorpus), ProjectsCorpus, o.logger)
	return x, nil
}

// Dir returns the root directory.
func (x *Index) Dir() string { return x.dir }

// Tasks returns the task corpus.
func (x *Index) Tasks() *Corpus { return x.tasks }

// Projects returns the project-history corpus.
func (x *Index) Projects() *Corpus { return x.projects }

// Corpus returns the corpus with the given name.
func (x *Index) Corpus(name string) (*Corpus, error) {
	switch name {
	case TasksCorpus:
		return x.tasks, nil
	case ProjectsCorpus:
		return x.projects, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCorpus, name)
	}
}

// Corpora returns both corpora, tasks first.
func (x *Index) Corpora() []*Corpus {
	return []*Corpus{x.tasks, x.projects}
}
