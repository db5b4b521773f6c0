package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ArtifactsHappyPath(t *testing.T) {
	dir := t.TempDir()
	records := []Record{
		{ID: 1, Content: "buy milk", Metadata: map[string]any{"project": "Inbox"}},
		{ID: 2, Content: "buy bread", Metadata: map[string]any{}},
	}
	vocab, err := BuildVocabulary([]string{"buy milk", "buy bread"})
	if err != nil {
		t.Fatal(err)
	}
	m, err := EncodeAll([]string{"buy milk", "buy bread"}, vocab)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(dir, TasksCorpus, records, vocab, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	gotRecords, err := LoadRecords(filepath.Join(dir, RecordsFile))
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(gotRecords) != 2 || gotRecords[0].Metadata["project"] != "Inbox" {
		t.Fatalf("records mismatch: %+v", gotRecords)
	}

	gotVocab, err := LoadVocabulary(filepath.Join(dir, VocabFile))
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if gotVocab.Len() != 3 {
		t.Fatalf("vocab size mismatch: %d", gotVocab.Len())
	}

	gotM, width, err := LoadMatrix(filepath.Join(dir, VectorsFile))
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	if width != 3 || len(gotM) != 2 {
		t.Fatalf("matrix mismatch: width=%d rows=%d", width, len(gotM))
	}
	for i := range m {
		if !gotM[i].Equal(m[i]) {
			t.Fatalf("vector %d mismatch: %v vs %v", i, gotM[i].Dense(), m[i].Dense())
		}
	}

	man, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if man.Corpus != TasksCorpus || man.Count != 2 || man.Width != 3 || man.IndexVersion != IndexVersion {
		t.Fatalf("manifest mismatch: %+v", man)
	}
	hash, err := HashFile(filepath.Join(dir, RecordsFile))
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if man.RecordsHash != hash {
		t.Fatalf("manifest records hash = %q, want %q", man.RecordsHash, hash)
	}
}

func TestLoad_MissingRecordsIsNotExist(t *testing.T) {
	_, err := LoadRecords(filepath.Join(t.TempDir(), RecordsFile))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoad_CorruptVectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorsFile)
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadMatrix(path); err == nil {
		t.Fatalf("expected error for corrupt vectors file")
	}
}

func TestWrite_RejectsWidthMismatch(t *testing.T) {
	vocab, _ := BuildVocabulary([]string{"buy milk"})
	err := Write(t.TempDir(), TasksCorpus,
		[]Record{{ID: 1, Content: "buy milk"}}, vocab, Matrix{NewVector(5)})
	if err == nil {
		t.Fatalf("expected width mismatch error")
	}
}
