package pagestore

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"docindex/docerr"
	"docindex/pdfparse"
)

// fakeSplitter returns pre-baked per-document page blobs keyed by path.
type fakeSplitter struct {
	pages map[string][][]byte
}

func (f *fakeSplitter) SplitPages(_ context.Context, path string) ([][]byte, error) {
	return f.pages[path], nil
}

// fakeExtractor counts how many times it runs, to prove shared pages are
// only ever extracted once.
type fakeExtractor struct {
	calls int32
}

func (f *fakeExtractor) Extract(_ context.Context, blob []byte) (pdfparse.PageContent, error) {
	atomic.AddInt32(&f.calls, 1)
	return pdfparse.PageContent{PlainText: string(blob)}, nil
}

func newTestStore(t *testing.T, splitter pdfparse.Splitter, extractor pdfparse.Extractor) *Store {
	t.Helper()
	root := filepath.Join(t.TempDir(), "pdf_cache")
	tmp := filepath.Join(t.TempDir(), "temp")
	s, err := Open(root, tmp, splitter, extractor)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestIngestSharedPage implements spec.md §8 scenario 4: two documents that
// share one identical page extract that page's content exactly once.
func TestIngestSharedPage(t *testing.T) {
	shared := []byte("%PDF shared page content")
	splitter := &fakeSplitter{pages: map[string][][]byte{
		"/docs/a.pdf": {shared, []byte("%PDF unique to a")},
		"/docs/b.pdf": {[]byte("%PDF unique to b"), shared},
	}}
	extractor := &fakeExtractor{}
	s := newTestStore(t, splitter, extractor)

	docA, err := s.Ingest(context.Background(), nil, "hash-a", "/docs/a.pdf", nil)
	require.NoError(t, err)
	require.Len(t, docA.Pages, 2)

	docB, err := s.Ingest(context.Background(), nil, "hash-b", "/docs/b.pdf", nil)
	require.NoError(t, err)
	require.Len(t, docB.Pages, 2)

	require.Equal(t, docA.Pages[0].PageHash, docB.Pages[1].PageHash)
	require.Equal(t, int32(3), extractor.calls) // 2 unique pages + 1 shared, extracted once

	n, err := s.refcount(docA.Pages[0].PageHash)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	page, err := s.Page(docA.Pages[0].PageHash)
	require.NoError(t, err)
	require.Equal(t, string(shared), page.PlainText)
}

// TestIngestInterruptedRollback implements spec.md §8 scenario 5: a
// cancellation mid-ingest leaves no orphaned page rows or files behind.
func TestIngestInterruptedRollback(t *testing.T) {
	splitter := &fakeSplitter{pages: map[string][][]byte{
		"/docs/c.pdf": {[]byte("page 0"), []byte("page 1"), []byte("page 2")},
	}}
	extractor := &fakeExtractor{}
	s := newTestStore(t, splitter, extractor)

	var seen int32
	cancel := func() bool {
		return atomic.AddInt32(&seen, 1) > 2 // cancel partway through page 2
	}

	_, err := s.Ingest(context.Background(), cancel, "hash-c", "/docs/c.pdf", nil)
	require.Error(t, err)
	require.True(t, docerr.IsCancelled(err))

	doc, err := s.DocumentOrNone("hash-c")
	require.NoError(t, err)
	require.Nil(t, doc)

	entries, err := os.ReadDir(s.pagesDir())
	require.NoError(t, err)
	require.Empty(t, entries, "interrupted ingest must not leave orphaned page files")
}

// TestRelease implements the refcount-to-zero cleanup half of §4.3.
func TestRelease(t *testing.T) {
	splitter := &fakeSplitter{pages: map[string][][]byte{
		"/docs/d.pdf": {[]byte("only page")},
	}}
	extractor := &fakeExtractor{}
	s := newTestStore(t, splitter, extractor)

	doc, err := s.Ingest(context.Background(), nil, "hash-d", "/docs/d.pdf", nil)
	require.NoError(t, err)
	pageHash := doc.Pages[0].PageHash

	require.NoError(t, s.Release("hash-d"))

	again, err := s.DocumentOrNone("hash-d")
	require.NoError(t, err)
	require.Nil(t, again)

	n, err := s.refcount(pageHash)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = os.Stat(s.pdfPath(pageHash))
	require.True(t, os.IsNotExist(err))
}

// TestIngestReportsProgressPerPage implements the ParseProgress(i, n)
// reporting half of spec.md §4.8.
func TestIngestReportsProgressPerPage(t *testing.T) {
	splitter := &fakeSplitter{pages: map[string][][]byte{
		"/docs/e.pdf": {[]byte("page 0"), []byte("page 1"), []byte("page 2")},
	}}
	extractor := &fakeExtractor{}
	s := newTestStore(t, splitter, extractor)

	var seen [][2]int
	report := func(i, n int) { seen = append(seen, [2]int{i, n}) }

	_, err := s.Ingest(context.Background(), nil, "hash-e", "/docs/e.pdf", report)
	require.NoError(t, err)
	require.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, seen)
}
