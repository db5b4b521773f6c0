package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Write writes the four corpus artifacts to dir. Each file is overwritten on its own,
// records first, so a crash part-way can leave the derived files stale.
func Write(dir, corpus string, records []Record, vocab Vocabulary, m Matrix) error {
	if len(m) != len(records) {
		return fmt.Errorf("vector count mismatch: got %d want %d", len(m), len(records))
	}
	for i, v := range m {
		if v.Width() != vocab.Len() {
			return fmt.Errorf("vector %d width %d does not match vocabulary size %d", i, v.Width(), vocab.Len())
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	recordsPath := filepath.Join(dir, RecordsFile)
	if err := writeRecords(recordsPath, records); err != nil {
		return err
	}
	hash, err := HashFile(recordsPath)
	if err != nil {
		return err
	}
	if err := writeVocab(filepath.Join(dir, VocabFile), vocab); err != nil {
		return err
	}
	if err := writeVectors(filepath.Join(dir, VectorsFile), vocab.Len(), m); err != nil {
		return err
	}

	manifest := Manifest{
		IndexVersion: IndexVersion,
		Corpus:       corpus,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
		Width:        vocab.Len(),
		Count:        len(records),
		RecordsFile:  RecordsFile,
		VocabFile:    VocabFile,
		VectorsFile:  VectorsFile,
		RecordsHash:  hash,
	}
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

func writeRecords(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal records: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("cannot write records file: %w", err)
	}
	return nil
}

func writeVocab(path string, vocab Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create vocab file: %w", err)
	}
	snap := vocabSnapshot{Version: IndexVersion, Tokens: vocab.Tokens()}
	if err := msgpack.NewEncoder(f).Encode(&snap); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write vocab: %w", err)
	}
	return f.Close()
}

func writeVectors(path string, width int, m Matrix) error {
	snap := vectorsSnapshot{Version: IndexVersion, Width: width, Rows: make([][]byte, len(m))}
	for i, v := range m {
		bits := v.bits
		if bits == nil {
			bits = roaring.New()
		}
		row, err := bits.ToBytes()
		if err != nil {
			return fmt.Errorf("cannot serialize vector %d: %w", i, err)
		}
		snap.Rows[i] = row
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(&snap); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot flush vectors: %w", err)
	}
	return f.Close()
}
