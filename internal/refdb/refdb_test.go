package refdb

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	assert.Empty(t, ChunkText("   \n\t", 10))
	assert.Equal(t, []string{"a b c"}, ChunkText("a\n b\t\tc", 10))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, ChunkText("aaa bbb ccc", 7))
	assert.Equal(t, []string{"tiny", "enorm", "ouswo", "rd", "end"}, ChunkText("tiny enormousword end", 5))
	assert.Equal(t, []string{"äöüäö", "ü"}, ChunkText("äöüäöü", 5))
	assert.Equal(t, []string{"äöü äöü"}, ChunkText("äöü äöü", 7))

	long := strings.Repeat("word ", 500)
	for _, c := range ChunkText(long, ChunkRunes) {
		assert.LessOrEqual(t, len([]rune(c)), ChunkRunes)
	}
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestExport(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"driver/interpret.c": "void eval_instruction() { call_other(); }",
		"lib/std/room.c":     strings.Repeat("inherit ", 300),
		"image.png":          "ignored",
	})

	var buf bytes.Buffer
	stats, err := Export(context.Background(), corpus.New(root), &buf)
	require.NoError(t, err)
	assert.Equal(t, ExportStats{Files: 2, Chunks: 4}, stats)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	var first Chunk
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, Chunk{
		ID:         "driver/interpret.c#0",
		Path:       "driver/interpret.c",
		ChunkIndex: 0,
		Text:       "void eval_instruction() { call_other(); }",
	}, first)

	var last Chunk
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, "lib/std/room.c#2", last.ID)
	assert.Equal(t, 2, last.ChunkIndex)
}

func TestExport_MissingRoot(t *testing.T) {
	_, err := Export(context.Background(), corpus.New(filepath.Join(t.TempDir(), "none")), &bytes.Buffer{})
	assert.ErrorIs(t, err, corpus.ErrCorpusRootMissing)
}

func TestSearch(t *testing.T) {
	export := strings.Join([]string{
		`{"id":"a#0","path":"a","chunk_index":0,"text":"call_out once"}`,
		``,
		`not json`,
		`{"id":"b#0","path":"b","chunk_index":0,"text":"CALL_OUT and call_out twice"}`,
		`{"id":"c#0","path":"c","chunk_index":0,"text":"nothing here"}`,
		`{"id":"d#0","path":"d","chunk_index":0,"text":"call_out first tie"}`,
	}, "\n")

	hits, err := Search(context.Background(), strings.NewReader(export), "  Call_Out ", 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "b#0", hits[0].ID)
	assert.Equal(t, 2, hits[0].Occurrences)
	assert.Equal(t, []string{"a#0", "d#0"}, []string{hits[1].ID, hits[2].ID})

	hits, err = Search(context.Background(), strings.NewReader(export), "call_out", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = Search(context.Background(), strings.NewReader(export), " ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExportThenSearch(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"efuns.txt": "clone_object clone_object",
		"notes.md":  "clone_object",
	})
	var buf bytes.Buffer
	_, err := Export(context.Background(), corpus.New(root), &buf)
	require.NoError(t, err)

	hits, err := Search(context.Background(), &buf, "clone_object", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "efuns.txt", hits[0].Path)
	assert.Equal(t, 2, hits[0].Occurrences)
}

func TestExportThenSearch_OversizedToken(t *testing.T) {
	minified := `{"efuns":["` + strings.Repeat("x", 2<<20) + `","call_other"]}`
	root := writeCorpus(t, map[string]string{
		"efuns.json": minified,
		"notes.txt":  "call_other dispatches to another object",
	})

	var buf bytes.Buffer
	stats, err := Export(context.Background(), corpus.New(root), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Greater(t, stats.Chunks, 2000)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var c Chunk
		require.NoError(t, json.Unmarshal([]byte(line), &c))
		require.LessOrEqual(t, len([]rune(c.Text)), ChunkRunes)
	}

	hits, err := Search(context.Background(), &buf, "call_other", 5)
	require.NoError(t, err)
	paths := make([]string, 0, len(hits))
	for _, h := range hits {
		paths = append(paths, h.Path)
	}
	assert.ElementsMatch(t, []string{"efuns.json", "notes.txt"}, paths)
}
