package query

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
	"docindex/scanner"
	"docindex/segment"
	"docindex/vector"
)

type stubSplitter struct{ pages [][]byte }

func (s *stubSplitter) SplitPages(_ context.Context, _ string) ([][]byte, error) { return s.pages, nil }

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, blob []byte) (pdfparse.PageContent, error) {
	return pdfparse.PageContent{PlainText: string(blob)}, nil
}

func setupEngine(t *testing.T, pages [][]byte) (*Engine, *coordinator.Coordinator) {
	t.Helper()
	dir := t.TempDir()

	ps, err := pagestore.Open(filepath.Join(dir, "pdf_cache"), filepath.Join(dir, "temp"), &stubSplitter{pages: pages}, stubExtractor{})
	require.NoError(t, err)
	t.Cleanup(func() { ps.Close() })

	lex, err := lexical.Open(filepath.Join(dir, "index_fts5.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { lex.Close() })

	emb := embedder.NewHashingEmbedder("test", 16)
	vec, err := vector.Open(filepath.Join(dir, "vector_db"), embedder.MetricCosine, emb)
	require.NoError(t, err)

	coord, err := coordinator.Open(filepath.Join(dir, "index.sqlite3"), ps, lex, vec)
	require.NoError(t, err)
	t.Cleanup(func() { coord.Close() })

	eng := New(lex, vec, coord, segment.Get(), emb)
	return eng, coord
}

func TestQueryReturnsExactPageMatch(t *testing.T) {
	root := t.TempDir()
	absPath := filepath.Join(root, "doc.pdf")
	require.NoError(t, os.WriteFile(absPath, []byte("whole file"), 0o644))

	eng, coord := setupEngine(t, [][]byte{[]byte("the rocket launch succeeded perfectly")})

	ev := scanner.Event{Kind: scanner.Added, Target: scanner.File, Scope: "corpus", RelativePath: "doc.pdf"}
	require.NoError(t, coord.ProcessEvent(context.Background(), nil, ev, absPath, nil))

	result, err := eng.Query(context.Background(), "rocket launch", 10)
	require.NoError(t, err)
	require.NotEmpty(t, result.Keywords)
	require.NotEmpty(t, result.Pages)
	require.Contains(t, result.Pages[0].Content, "rocket")
}

func TestQueryEmptyKeywordsReturnsEmpty(t *testing.T) {
	eng, _ := setupEngine(t, nil)
	result, err := eng.Query(context.Background(), "the and or", 10)
	require.NoError(t, err)
	require.Empty(t, result.Pdfs)
	require.Empty(t, result.Pages)
}
