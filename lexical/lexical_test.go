package lexical

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docindex/segment"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index_fts5.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndQueryMatched(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(Node{
		NodeID:   "page-1",
		NodeType: TypePdfPage,
		Metadata: map[string]string{"scope": "corpus"},
		Segments: []Segment{
			{Start: 0, End: 20, Text: "the quick brown fox"},
			{Start: 21, End: 40, Text: "jumps over lazy dog"},
		},
	}))
	require.NoError(t, s.Save(Node{
		NodeID:   "page-2",
		NodeType: TypePdfPage,
		Segments: []Segment{{Start: 0, End: 10, Text: "brown cat sleeps"}},
	}))

	hits, err := s.Query(segment.Tokenize("quick brown fox"), Matched)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "page-1", hits[0].NodeID)
	require.Len(t, hits[0].Segments, 2) // every segment is reported, matched or not
	require.Equal(t, []string{"brown", "fox", "quick"}, hits[0].Segments[0].MatchedTokens)
	require.Empty(t, hits[0].Segments[1].MatchedTokens)
	require.Greater(t, hits[0].FtsRank, 0.0)
}

func TestQueryMatchedPartialExcludesFullMatches(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(Node{
		NodeID: "full", NodeType: TypePdfPage,
		Segments: []Segment{{Start: 0, End: 10, Text: "alpha beta"}},
	}))
	require.NoError(t, s.Save(Node{
		NodeID: "partial", NodeType: TypePdfPage,
		Segments: []Segment{{Start: 0, End: 5, Text: "alpha only"}},
	}))

	tokens := segment.Tokenize("alpha beta")
	full, err := s.Query(tokens, Matched)
	require.NoError(t, err)
	require.Len(t, full, 1)
	require.Equal(t, "full", full[0].NodeID)

	partial, err := s.Query(tokens, MatchedPartial)
	require.NoError(t, err)
	require.Len(t, partial, 1)
	require.Equal(t, "partial", partial[0].NodeID)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(Node{
		NodeID: "gone", NodeType: TypePdfPage,
		Segments: []Segment{{Start: 0, End: 5, Text: "ephemeral"}},
	}))
	require.NoError(t, s.Remove("gone"))

	hits, err := s.Query(segment.Tokenize("ephemeral"), Matched)
	require.NoError(t, err)
	require.Empty(t, hits)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM contents`).Scan(&count))
	require.Equal(t, 0, count)
}

func TestSegmentCodecRoundTrip(t *testing.T) {
	segs := []Segment{{Start: 0, End: 10}, {Start: 11, End: 30}}
	toksPerSeg := [][]string{{"a", "b"}, {"c", "d", "e"}}
	encoded := encodeSegments(segs, toksPerSeg)
	decoded, err := decodeSegments(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, decodedSegment{TokenLen: 2, Start: 0, End: 10}, decoded[0])
	require.Equal(t, decodedSegment{TokenLen: 3, Start: 11, End: 30}, decoded[1])

	stream := splitTokenStream("a b c d e", decoded)
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d", "e"}}, stream)
}
