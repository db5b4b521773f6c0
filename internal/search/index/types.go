package index

// File names of the artifacts written for every corpus.
const (
	RecordsFile  = "records.json"
	VocabFile    = "vocab.blob"
	VectorsFile  = "vectors.blob"
	ManifestFile = "index_manifest.json"
)

// Corpus names.
const (
	TasksCorpus    = "tasks"
	ProjectsCorpus = "projects"
)

// IndexVersion is written to the manifest and blob snapshots.
const IndexVersion = 1

// Manifest describes the last clean save of a corpus.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	Corpus       string `json:"corpus"`
	UpdatedAt    string `json:"updated_at"`
	Width        int    `json:"width"`
	Count        int    `json:"count"`
	RecordsFile  string `json:"records_file"`
	VocabFile    string `json:"vocab_file"`
	VectorsFile  string `json:"vectors_file"`
	RecordsHash  string `json:"records_hash"`
}

// Record is one indexed item: a task or a project-history entry.
type Record struct {
	ID       int64          `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Hit is a record returned by a query together with its cosine score.
type Hit struct {
	Record
	Score float64
}

// State tracks a corpus through its load/mutate/save lifecycle.
type State int

const (
	Uninitialized State = iota
	Loaded
	Mutated
	Persisted
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Mutated:
		return "mutated"
	case Persisted:
		return "persisted"
	default:
		return "uninitialized"
	}
}

// vocabSnapshot is the msgpack form of vocab.blob.
type vocabSnapshot struct {
	Version int      `msgpack:"version"`
	Tokens  []string `msgpack:"tokens"`
}

// vectorsSnapshot is the msgpack form of vectors.blob (before compression).
// Each row is a serialized Roaring bitmap.
type vectorsSnapshot struct {
	Version int      `msgpack:"version"`
	Width   int      `msgpack:"width"`
	Rows    [][]byte `msgpack:"rows"`
}
