package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, dir string) *Index {
	t.Helper()
	x, err := Open(dir)
	require.NoError(t, err)
	return x
}

func TestOpen_EmptyDir(t *testing.T) {
	x := openTest(t, t.TempDir())
	for _, c := range x.Corpora() {
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, 0, c.Vocabulary().Len())
		assert.Nil(t, c.Matrix())
		assert.Equal(t, Loaded, c.State())
		assert.Equal(t, int64(1), c.NextID())
	}

	hits, err := x.Tasks().Query("anything", 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestIndex_Corpus(t *testing.T) {
	x := openTest(t, t.TempDir())

	c, err := x.Corpus(ProjectsCorpus)
	require.NoError(t, err)
	assert.Same(t, x.Projects(), c)

	_, err = x.Corpus("notes")
	assert.ErrorIs(t, err, ErrUnknownCorpus)
}

func TestCorpus_AddAndQuery(t *testing.T) {
	x := openTest(t, t.TempDir())
	tasks := x.Tasks()

	require.NoError(t, tasks.Add(Record{ID: 1, Content: "buy milk"}, Record{ID: 2, Content: "buy bread"}))
	assert.Equal(t, Persisted, tasks.State())
	assert.Equal(t, []string{"bread", "buy", "milk"}, tasks.Vocabulary().Tokens())

	hits, err := tasks.Query("buy", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)
	assert.InDelta(t, 0.70710678, hits[0].Score, 1e-6)

	hits, err = tasks.Query("buy milk", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	assert.Equal(t, 0, x.Projects().Len())
}

func TestCorpus_QueryHitCarriesRecord(t *testing.T) {
	x := openTest(t, t.TempDir())
	rec := Record{ID: 7, Content: "renew passport", Metadata: map[string]any{"project": "personal"}}
	require.NoError(t, x.Tasks().Add(rec))

	hits, err := x.Tasks().Query("passport", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, rec, hits[0].Record)
	assert.Equal(t, "personal", hits[0].Metadata["project"])
	assert.Equal(t, "renew passport", hits[0].Content)
}

func TestCorpus_EditedRecordsRebuilt(t *testing.T) {
	dir := t.TempDir()
	x := openTest(t, dir)
	require.NoError(t, x.Tasks().Add(Record{ID: 1, Content: "buy milk"}, Record{ID: 2, Content: "buy bread"}))

	// Same count and width, different words.
	edited := []Record{
		{ID: 1, Content: "sell car", Metadata: map[string]any{}},
		{ID: 2, Content: "sell boat", Metadata: map[string]any{}},
	}
	require.NoError(t, writeRecords(filepath.Join(dir, TasksCorpus, RecordsFile), edited))

	y := openTest(t, dir)
	assert.Equal(t, []string{"boat", "car", "sell"}, y.Tasks().Vocabulary().Tokens())
	hits, err := y.Tasks().Query("sell", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestCorpus_AddWidensEveryVector(t *testing.T) {
	x := openTest(t, t.TempDir())
	tasks := x.Tasks()
	require.NoError(t, tasks.Add(Record{ID: 1, Content: "buy milk"}, Record{ID: 2, Content: "buy bread"}))
	require.NoError(t, tasks.Add(Record{ID: 3, Content: "sell car"}))

	assert.Equal(t, []string{"bread", "buy", "car", "milk", "sell"}, tasks.Vocabulary().Tokens())
	m := tasks.Matrix()
	require.Len(t, m, 3)
	assert.Equal(t, []uint8{0, 1, 0, 1, 0}, m[0].Dense())
	assert.Equal(t, []uint8{1, 1, 0, 0, 0}, m[1].Dense())
	assert.Equal(t, []uint8{0, 0, 1, 0, 1}, m[2].Dense())
	require.NoError(t, tasks.Check())
	assert.Equal(t, int64(4), tasks.NextID())
}

func TestCorpus_TieBreakByInsertionOrder(t *testing.T) {
	x := openTest(t, t.TempDir())
	tasks := x.Tasks()
	require.NoError(t, tasks.Add(
		Record{ID: 10, Content: "water the plants"},
		Record{ID: 11, Content: "water the plants"},
	))

	hits, err := tasks.Query("water", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, int64(10), hits[0].ID)
	assert.Equal(t, int64(11), hits[1].ID)
}

func TestCorpus_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	x := openTest(t, dir)
	require.NoError(t, x.Tasks().Add(
		Record{ID: 1, Content: "Fix login bug", Metadata: map[string]any{"tags": []string{"auth"}}},
		Record{ID: 2, Content: "Write release notes"},
	))
	require.NoError(t, x.Projects().Add(Record{ID: 1, Content: "fix: handle nil session auth/session.go"}))

	y := openTest(t, dir)
	for _, name := range []string{TasksCorpus, ProjectsCorpus} {
		before, _ := x.Corpus(name)
		after, _ := y.Corpus(name)
		assert.Equal(t, before.Len(), after.Len(), name)
		assert.Equal(t, before.Vocabulary().Tokens(), after.Vocabulary().Tokens(), name)
		bm, am := before.Matrix(), after.Matrix()
		require.Len(t, am, len(bm))
		for i := range bm {
			assert.True(t, bm[i].Equal(am[i]), "%s vector %d", name, i)
		}
		assert.Equal(t, Loaded, after.State())
	}

	rec, ok := y.Tasks().Find(func(r Record) bool { return r.ID == 1 })
	require.True(t, ok)
	assert.Equal(t, []any{"auth"}, rec.Metadata["tags"])
	assert.NotNil(t, y.Tasks().Records()[1].Metadata)

	man, err := LoadManifest(filepath.Join(dir, TasksCorpus, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, 2, man.Count)
	assert.Equal(t, y.Tasks().Vocabulary().Len(), man.Width)
}

func TestCorpus_CorruptRecordsLoadEmpty(t *testing.T) {
	dir := t.TempDir()
	x := openTest(t, dir)
	require.NoError(t, x.Tasks().Add(Record{ID: 1, Content: "buy milk"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksCorpus, RecordsFile), []byte("{not json"), 0o644))

	y := openTest(t, dir)
	assert.Equal(t, 0, y.Tasks().Len())
	assert.Equal(t, 0, y.Tasks().Vocabulary().Len())
	assert.Nil(t, y.Tasks().Matrix())
}

func TestCorpus_CorruptVectorsRebuilt(t *testing.T) {
	dir := t.TempDir()
	x := openTest(t, dir)
	require.NoError(t, x.Tasks().Add(Record{ID: 1, Content: "buy milk"}, Record{ID: 2, Content: "buy bread"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksCorpus, VectorsFile), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksCorpus, VocabFile), []byte("garbage"), 0o644))

	y := openTest(t, dir)
	tasks := y.Tasks()
	assert.Equal(t, 2, tasks.Len())
	require.NoError(t, tasks.Check())
	assert.Equal(t, x.Tasks().Vocabulary().Tokens(), tasks.Vocabulary().Tokens())

	hits, err := tasks.Query("milk", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
}

func TestCorpus_StaleDerivedStateRepaired(t *testing.T) {
	dir := t.TempDir()
	x := openTest(t, dir)
	require.NoError(t, x.Tasks().Add(Record{ID: 1, Content: "buy milk"}, Record{ID: 2, Content: "buy bread"}))

	// Records written, derived files left from the previous save.
	records := append(x.Tasks().Records(), Record{ID: 3, Content: "sell car", Metadata: map[string]any{}})
	require.NoError(t, writeRecords(filepath.Join(dir, TasksCorpus, RecordsFile), records))

	y := openTest(t, dir)
	tasks := y.Tasks()
	assert.Equal(t, 3, tasks.Len())
	require.NoError(t, tasks.Check())
	assert.Equal(t, 5, tasks.Vocabulary().Len())
}

func TestCorpus_ValidationLeavesStateUnchanged(t *testing.T) {
	x := openTest(t, t.TempDir())
	tasks := x.Tasks()
	require.NoError(t, tasks.Add(Record{ID: 1, Content: "buy milk"}))

	err := tasks.Add(Record{ID: 2, Content: "ok"}, Record{ID: 3, Content: string([]byte{0xff, 0xfe})})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "content", verr.Field)

	err = tasks.Add(Record{ID: 4, Content: "fine", Metadata: map[string]any{"bad": make(chan int)}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "metadata", verr.Field)

	assert.Equal(t, 1, tasks.Len())
	assert.Equal(t, Persisted, tasks.State())
	assert.Equal(t, []string{"buy", "milk"}, tasks.Vocabulary().Tokens())
}

func TestCorpus_SaveFailureStaysMutated(t *testing.T) {
	x := openTest(t, t.TempDir())
	tasks := x.Tasks()

	require.NoError(t, os.RemoveAll(tasks.Dir()))
	require.NoError(t, os.WriteFile(tasks.Dir(), []byte("in the way"), 0o644))

	err := tasks.Add(Record{ID: 1, Content: "buy milk"})
	require.Error(t, err)
	assert.Equal(t, Mutated, tasks.State())
	assert.Equal(t, 1, tasks.Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "mutated", Mutated.String())
	assert.Equal(t, "persisted", Persisted.String())
}
