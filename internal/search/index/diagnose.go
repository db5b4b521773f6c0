package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Diagnose inspects the artifacts of the corpus stored in dir without loading or
// repairing them and returns one message per problem found. A corpus that was never
// saved has no problems.
func Diagnose(dir string) []string {
	recordsPath := filepath.Join(dir, RecordsFile)
	records, err := LoadRecords(recordsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return []string{err.Error()}
	}

	var problems []string
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
		}
	}
	if len(records) == 0 {
		return problems
	}

	vocab, verr := LoadVocabulary(filepath.Join(dir, VocabFile))
	if verr != nil {
		problems = append(problems, verr.Error())
	}
	matrix, width, merr := LoadMatrix(filepath.Join(dir, VectorsFile))
	if merr != nil {
		problems = append(problems, merr.Error())
	}
	if verr == nil && merr == nil {
		if len(matrix) != len(records) {
			problems = append(problems, fmt.Sprintf("%d vectors for %d records", len(matrix), len(records)))
		}
		if width != vocab.Len() {
			problems = append(problems, fmt.Sprintf("vector width %d, vocabulary %d", width, vocab.Len()))
		}
	}

	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	switch {
	case err != nil:
		problems = append(problems, err.Error())
	case m.Count != len(records):
		problems = append(problems, fmt.Sprintf("manifest counts %d records, found %d", m.Count, len(records)))
	case verr == nil && m.Width != vocab.Len():
		problems = append(problems, fmt.Sprintf("manifest width %d, vocabulary %d", m.Width, vocab.Len()))
	}
	if err == nil {
		if hash, herr := HashFile(recordsPath); herr == nil && hash != m.RecordsHash {
			problems = append(problems, "records changed since the last save")
		}
	}
	return problems
}
