package index

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIndex captures what Ingest adds without embedding anything.
type recordingIndex struct {
	added  []Chunk
	addErr error
}

func (r *recordingIndex) Add(_ context.Context, chunks []Chunk) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.added = append(r.added, chunks...)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int) ([]Chunk, error) {
	return nil, nil
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.txt"),
		[]byte("Employees may carry over unused leave into the next year."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.md"),
		[]byte("# Telework policy\n\nRemote work requires supervisor approval."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"),
		[]byte(`{"ignored": true}`), 0644))

	idx := &recordingIndex{}
	n, err := Ingest(context.Background(), idx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, idx.added, 2)

	sources := []string{idx.added[0].Source, idx.added[1].Source}
	joined := strings.Join(sources, " ")
	assert.Contains(t, joined, "guide.txt")
	assert.Contains(t, joined, "policy.md")
	assert.NotContains(t, joined, "data.json")
}

func TestIngestSplitsLongFiles(t *testing.T) {
	dir := t.TempDir()
	sentence := "The annual performance report covers hiring, retention and retirement processing. "
	long := strings.Repeat(sentence, 40)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte(long), 0644))

	idx := &recordingIndex{}
	n, err := Ingest(context.Background(), idx, dir)
	require.NoError(t, err)

	assert.Greater(t, n, 1)
	for _, c := range idx.added {
		assert.LessOrEqual(t, len(c.Content), chunkSize)
		assert.True(t, strings.HasSuffix(c.Source, "report.txt"))
	}
}

func TestIngestEmptyDir(t *testing.T) {
	idx := &recordingIndex{}
	n, err := Ingest(context.Background(), idx, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, idx.added)
}

func TestIngestMissingDir(t *testing.T) {
	idx := &recordingIndex{}
	_, err := Ingest(context.Background(), idx, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestIngestAddError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.txt"), []byte("content"), 0644))

	idx := &recordingIndex{addErr: assert.AnError}
	_, err := Ingest(context.Background(), idx, dir)
	assert.Error(t, err)
}
