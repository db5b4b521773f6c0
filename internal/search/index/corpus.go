package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Corpus is one independently indexed collection of records (tasks or project history)
// together with its derived vocabulary and vector matrix.
//
// A Corpus is not safe for concurrent use.
type Corpus struct {
	name  string
	dir   string
	log   *slog.Logger
	state State

	records []Record
	vocab   Vocabulary
	matrix  Matrix
}

func openCorpus(dir, name string, log *slog.Logger) *Corpus {
	c := &Corpus{name: name, dir: dir, log: log.With("corpus", name)}
	c.load()
	return c
}

// load fills c from disk. Missing or unreadable artifacts fall back to empty defaults;
// derived state that does not match the records is rebuilt in memory.
func (c *Corpus) load() {
	defer func() { c.state = Loaded }()

	records, err := LoadRecords(filepath.Join(c.dir, RecordsFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("records unreadable, starting empty", "error", err)
		}
		c.reset()
		return
	}
	c.records = records
	if len(records) == 0 {
		c.vocab, c.matrix = Vocabulary{}, nil
		return
	}

	vocab, verr := LoadVocabulary(filepath.Join(c.dir, VocabFile))
	matrix, width, merr := LoadMatrix(filepath.Join(c.dir, VectorsFile))
	switch {
	case verr != nil:
		c.log.Warn("vocabulary unreadable, rebuilding", "error", verr)
	case merr != nil:
		c.log.Warn("vectors unreadable, rebuilding", "error", merr)
	case len(matrix) != len(records):
		c.log.Warn("vector count does not match records, rebuilding", "vectors", len(matrix), "records", len(records))
	case width != vocab.Len():
		c.log.Warn("vector width does not match vocabulary, rebuilding", "width", width, "vocabulary", vocab.Len())
	case !c.manifestMatches():
		c.log.Warn("records changed since the last save, rebuilding")
	default:
		c.vocab, c.matrix = vocab, matrix
		return
	}

	if err := c.Rebuild(); err != nil {
		c.log.Warn("rebuild failed, starting empty", "error", err)
		c.reset()
	}
}

// manifestMatches reports whether the manifest records the hash of the current
// records.json.
func (c *Corpus) manifestMatches() bool {
	m, err := LoadManifest(filepath.Join(c.dir, ManifestFile))
	if err != nil {
		return false
	}
	hash, err := HashFile(filepath.Join(c.dir, RecordsFile))
	if err != nil {
		return false
	}
	return m.RecordsHash == hash
}

func (c *Corpus) reset() {
	c.records = []Record{}
	c.vocab = Vocabulary{}
	c.matrix = nil
}

// Name returns the corpus name.
func (c *Corpus) Name() string { return c.name }

// Dir returns the directory holding the corpus artifacts.
func (c *Corpus) Dir() string { return c.dir }

// State returns the lifecycle state.
func (c *Corpus) State() State { return c.state }

// Len returns the number of records.
func (c *Corpus) Len() int { return len(c.records) }

// Records returns a copy of the records in insertion order.
func (c *Corpus) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Vocabulary returns the current vocabulary.
func (c *Corpus) Vocabulary() Vocabulary { return c.vocab }

// Matrix returns a copy of the current matrix; nil when the corpus is empty.
func (c *Corpus) Matrix() Matrix {
	if c.matrix == nil {
		return nil
	}
	out := make(Matrix, len(c.matrix))
	copy(out, c.matrix)
	return out
}

// NextID returns one more than the largest record ID (1 for an empty corpus).
func (c *Corpus) NextID() int64 {
	var max int64
	for _, r := range c.records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// HasID reports whether a record with id exists.
func (c *Corpus) HasID(id int64) bool {
	_, ok := c.Find(func(r Record) bool { return r.ID == id })
	return ok
}

// Find returns the first record matching pred.
func (c *Corpus) Find(pred func(Record) bool) (Record, bool) {
	for _, r := range c.records {
		if pred(r) {
			return r, true
		}
	}
	return Record{}, false
}

// Add appends records, rebuilds the vocabulary and every vector over the whole corpus,
// and saves. The whole batch is one rebuild and one save; nothing changes if a record
// is invalid.
func (c *Corpus) Add(recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	next := make([]Record, 0, len(c.records)+len(recs))
	next = append(next, c.records...)
	for _, r := range recs {
		if err := validateRecord(r); err != nil {
			return err
		}
		if r.Metadata == nil {
			r.Metadata = map[string]any{}
		}
		next = append(next, r)
	}

	vocab, matrix, err := derive(next)
	if err != nil {
		return err
	}
	c.records, c.vocab, c.matrix = next, vocab, matrix
	c.state = Mutated
	c.log.Debug("records added", "added", len(recs), "records", len(next), "width", vocab.Len())

	return c.Save()
}

// Rebuild recomputes the vocabulary and matrix from the records.
func (c *Corpus) Rebuild() error {
	vocab, matrix, err := derive(c.records)
	if err != nil {
		return err
	}
	c.vocab, c.matrix = vocab, matrix
	return nil
}

// Save writes records, vocabulary, vectors and manifest. The corpus stays Mutated if
// any write fails.
func (c *Corpus) Save() error {
	if err := Write(c.dir, c.name, c.records, c.vocab, c.matrix); err != nil {
		c.state = Mutated
		return fmt.Errorf("cannot save %s corpus: %w", c.name, err)
	}
	c.state = Persisted
	return nil
}

// Query returns the records most similar to text, best first. An empty vocabulary
// yields an empty result.
func (c *Corpus) Query(text string, topN int) ([]Hit, error) {
	if c.vocab.Len() == 0 {
		return []Hit{}, nil
	}
	q, err := Encode(text, c.vocab)
	if err != nil {
		return nil, err
	}
	ranked, err := Rank(q, c.matrix, topN)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(ranked))
	for _, s := range ranked {
		hits = append(hits, Hit{Record: c.records[s.Index], Score: s.Score})
	}
	c.log.Debug("query", "top_n", topN, "results", len(hits))
	return hits, nil
}

// Check verifies the in-memory invariants: one vector per record, every vector as wide
// as the vocabulary.
func (c *Corpus) Check() error {
	if len(c.matrix) != len(c.records) {
		return fmt.Errorf("%s: %d vectors for %d records", c.name, len(c.matrix), len(c.records))
	}
	for i, v := range c.matrix {
		if v.Width() != c.vocab.Len() {
			return fmt.Errorf("%s: vector %d width %d, vocabulary %d", c.name, i, v.Width(), c.vocab.Len())
		}
	}
	return nil
}

func derive(records []Record) (Vocabulary, Matrix, error) {
	if len(records) == 0 {
		return Vocabulary{}, nil, nil
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}
	vocab, err := BuildVocabulary(texts)
	if err != nil {
		return Vocabulary{}, nil, err
	}
	matrix, err := EncodeAll(texts, vocab)
	if err != nil {
		return Vocabulary{}, nil, err
	}
	return vocab, matrix, nil
}

func validateRecord(r Record) error {
	if !utf8.ValidString(r.Content) {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("record %d is not valid UTF-8", r.ID)}
	}
	if r.Metadata != nil {
		if _, err := json.Marshal(r.Metadata); err != nil {
			return &ValidationError{Field: "metadata", Reason: fmt.Sprintf("record %d: %v", r.ID, err)}
		}
	}
	return nil
}
