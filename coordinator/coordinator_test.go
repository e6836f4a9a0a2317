package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docindex/embedder"
	"docindex/lexical"
	"docindex/pagestore"
	"docindex/pdfparse"
	"docindex/progress"
	"docindex/scanner"
	"docindex/vector"
)

type stubSplitter struct{ pages [][]byte }

func (s *stubSplitter) SplitPages(_ context.Context, _ string) ([][]byte, error) {
	return s.pages, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, blob []byte) (pdfparse.PageContent, error) {
	return pdfparse.PageContent{PlainText: string(blob)}, nil
}

func newTestCoordinator(t *testing.T, splitter pdfparse.Splitter) *Coordinator {
	t.Helper()
	dir := t.TempDir()

	ps, err := pagestore.Open(filepath.Join(dir, "pdf_cache"), filepath.Join(dir, "temp"), splitter, stubExtractor{})
	require.NoError(t, err)
	t.Cleanup(func() { ps.Close() })

	lex, err := lexical.Open(filepath.Join(dir, "index_fts5.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { lex.Close() })

	vec, err := vector.Open(filepath.Join(dir, "vector_db"), embedder.MetricCosine, embedder.NewHashingEmbedder("test", 16))
	require.NoError(t, err)

	c, err := Open(filepath.Join(dir, "index.sqlite3"), ps, lex, vec)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func writePDF(t *testing.T, dir, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestPipelineRegistersNodes(t *testing.T) {
	root := t.TempDir()
	absPath := writePDF(t, root, "doc.pdf", "whole file bytes")

	splitter := &stubSplitter{pages: [][]byte{[]byte("page zero text"), []byte("page one text")}}
	c := newTestCoordinator(t, splitter)

	ev := scanner.Event{Kind: scanner.Added, Target: scanner.File, Scope: "corpus", RelativePath: "doc.pdf"}
	require.NoError(t, c.ProcessEvent(context.Background(), nil, ev, absPath, nil))

	var fileCount int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&fileCount))
	require.Equal(t, 1, fileCount)

	var pageCount int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&pageCount))
	require.Equal(t, 2, pageCount)

	hits, err := c.lex.Query([]string{"page", "zero", "text"}, lexical.Matched)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestProcessEventReportsParseAndIndexProgress(t *testing.T) {
	root := t.TempDir()
	absPath := writePDF(t, root, "doc.pdf", "whole file bytes")

	splitter := &stubSplitter{pages: [][]byte{[]byte("page zero text"), []byte("page one text")}}
	c := newTestCoordinator(t, splitter)

	var kinds []progress.Kind
	report := func(kind progress.Kind, i, n int) {
		kinds = append(kinds, kind)
		require.LessOrEqual(t, i, n)
		require.Equal(t, 2, n)
	}

	ev := scanner.Event{Kind: scanner.Added, Target: scanner.File, Scope: "corpus", RelativePath: "doc.pdf"}
	require.NoError(t, c.ProcessEvent(context.Background(), nil, ev, absPath, report))

	require.Contains(t, kinds, progress.ParseProgress)
	require.Contains(t, kinds, progress.IndexProgress)
}

func TestRemovedEventReleasesDocument(t *testing.T) {
	root := t.TempDir()
	absPath := writePDF(t, root, "doc.pdf", "whole file bytes")

	splitter := &stubSplitter{pages: [][]byte{[]byte("solo page text")}}
	c := newTestCoordinator(t, splitter)

	added := scanner.Event{Kind: scanner.Added, Target: scanner.File, Scope: "corpus", RelativePath: "doc.pdf"}
	require.NoError(t, c.ProcessEvent(context.Background(), nil, added, absPath, nil))

	removed := scanner.Event{Kind: scanner.Removed, Target: scanner.File, Scope: "corpus", RelativePath: "doc.pdf"}
	require.NoError(t, c.ProcessEvent(context.Background(), nil, removed, absPath, nil))

	var fileCount int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&fileCount))
	require.Equal(t, 0, fileCount)

	var pageCount int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&pageCount))
	require.Equal(t, 0, pageCount)
}

func TestNonPDFEventsAreIgnored(t *testing.T) {
	root := t.TempDir()
	absPath := writePDF(t, root, "notes.txt", "irrelevant")
	c := newTestCoordinator(t, &stubSplitter{})

	ev := scanner.Event{Kind: scanner.Added, Target: scanner.File, Scope: "corpus", RelativePath: "notes.txt"}
	require.NoError(t, c.ProcessEvent(context.Background(), nil, ev, absPath, nil))

	var fileCount int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&fileCount))
	require.Equal(t, 0, fileCount)
}
