package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docindex/coordinator"
	"docindex/embedder"
	"docindex/lexical"
	"docindex/pagestore"
	"docindex/pdfparse"
	"docindex/progress"
	"docindex/query"
	"docindex/scanner"
	"docindex/segment"
	"docindex/vector"
	"docindex/workerpool"
)

type stubSplitter struct{}

func (stubSplitter) SplitPages(_ context.Context, path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return [][]byte{data}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, blob []byte) (pdfparse.PageContent, error) {
	return pdfparse.PageContent{PlainText: string(blob)}, nil
}

func TestRunIngestsNewFileAndQueryFindsIt(t *testing.T) {
	base := t.TempDir()
	corpus := filepath.Join(base, "corpus")
	require.NoError(t, os.MkdirAll(corpus, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "doc.pdf"), []byte("satellite telemetry report"), 0o644))

	workspace := t.TempDir()

	scan, err := scanner.Open(filepath.Join(workspace, "scanner.sqlite3"))
	require.NoError(t, err)
	defer scan.Close()
	require.NoError(t, scan.CommitSources(map[string]string{"corpus": corpus}))

	ps, err := pagestore.Open(filepath.Join(workspace, "pdf_cache"), filepath.Join(workspace, "temp"), stubSplitter{}, stubExtractor{})
	require.NoError(t, err)
	defer ps.Close()

	lex, err := lexical.Open(filepath.Join(workspace, "index_fts5.sqlite3"))
	require.NoError(t, err)
	defer lex.Close()

	emb := embedder.NewHashingEmbedder("test", 16)
	vec, err := vector.Open(filepath.Join(workspace, "vector_db"), embedder.MetricCosine, emb)
	require.NoError(t, err)

	coord, err := coordinator.Open(filepath.Join(workspace, "index.sqlite3"), ps, lex, vec)
	require.NoError(t, err)
	defer coord.Close()

	qe := query.New(lex, vec, coord, segment.Get(), emb)
	bus := progress.New()
	eng := New(scan, coord, qe, bus, 2)

	state, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, workerpool.Success, state)

	result, err := eng.Query(context.Background(), "satellite telemetry", 10)
	require.NoError(t, err)
	require.NotEmpty(t, result.Pages)
}
