package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docindex/embedder"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vector_db")
	s, err := Open(dir, embedder.MetricCosine, embedder.NewHashingEmbedder("test-model", 32))
	require.NoError(t, err)
	return s
}

func TestSaveQueryRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "node-a", []Segment{
		{Start: 0, End: 10, Text: "apples and oranges"},
		{Start: 11, End: 20, Text: "citrus fruit bowl"},
	}, map[string]string{"scope": "corpus"}))
	require.NoError(t, s.Save(ctx, "node-b", []Segment{
		{Start: 0, End: 9, Text: "rocket engines and spacecraft"},
	}, nil))

	qvec, err := embedder.NewHashingEmbedder("test-model", 32).Embed(ctx, []string{"apples and oranges"})
	require.NoError(t, err)

	hits, err := s.Query(ctx, qvec[0], 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "node-a", hits[0].NodeID)

	dists, err := s.Distances(ctx, qvec[0], []SegRef{{NodeID: "node-a", SegIdx: 0}, {NodeID: "node-a", SegIdx: 1}})
	require.NoError(t, err)
	require.Len(t, dists, 2)
	require.Less(t, dists[0], dists[1])

	require.NoError(t, s.Remove(ctx, "node-a"))
	_, err = s.col.GetByID(ctx, segID("node-a", 0))
	require.Error(t, err)
}
