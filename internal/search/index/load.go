package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// LoadRecords reads records.json. A missing file is reported with an error wrapping
// os.ErrNotExist.
func LoadRecords(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read records file %s: %w", path, err)
	}
	var out []Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("invalid records JSON %s: %w", path, err)
	}
	for i := range out {
		if out[i].Metadata == nil {
			out[i].Metadata = map[string]any{}
		}
	}
	return out, nil
}

// LoadVocabulary reads vocab.blob.
func LoadVocabulary(path string) (Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("cannot open vocab file %s: %w", path, err)
	}
	defer f.Close()

	var snap vocabSnapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocab file %s: %w", path, err)
	}
	if snap.Version != IndexVersion {
		return Vocabulary{}, fmt.Errorf("unsupported vocab version %d in %s", snap.Version, path)
	}
	return NewVocabulary(snap.Tokens)
}

// LoadMatrix reads vectors.blob and returns the matrix and its width.
func LoadMatrix(path string) (Matrix, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot open vectors file %s: %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot read vectors file %s: %w", path, err)
	}
	defer zr.Close()

	var snap vectorsSnapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, 0, fmt.Errorf("invalid vectors file %s: %w", path, err)
	}
	if snap.Version != IndexVersion {
		return nil, 0, fmt.Errorf("unsupported vectors version %d in %s", snap.Version, path)
	}
	if snap.Width < 0 {
		return nil, 0, fmt.Errorf("invalid width in %s: %d", path, snap.Width)
	}

	m := make(Matrix, 0, len(snap.Rows))
	for i, row := range snap.Rows {
		bits := roaring.New()
		if err := bits.UnmarshalBinary(row); err != nil {
			return nil, 0, fmt.Errorf("invalid vector %d in %s: %w", i, path, err)
		}
		if !bits.IsEmpty() && int(bits.Maximum()) >= snap.Width {
			return nil, 0, fmt.Errorf("vector %d in %s has position %d beyond width %d", i, path, bits.Maximum(), snap.Width)
		}
		m = append(m, Vector{width: snap.Width, bits: bits})
	}
	return m, snap.Width, nil
}

// LoadManifest reads index_manifest.json.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest JSON %s: %w", path, err)
	}
	return m, nil
}

// HashFile returns the hex SHA-256 of the file at path. The manifest stores it for
// records.json so derived files built from other records are detected.
func HashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
