// Package lexical implements the full-text index of spec.md §4.4: one
// SQLite FTS5 virtual table holding the space-joined token stream of every
// indexed node, plus a side table carrying node metadata and a segment
// codec that maps FT-row token ranges back onto character offsets.
package lexical

// NodeType enumerates spec.md §3's IndexNode.node_type values.
type NodeType string

const (
	TypePdf              NodeType = "pdf"
	TypePdfPage          NodeType = "pdf.page"
	TypeAnnoContent      NodeType = "pdf.page.anno.content"
	TypeAnnoExtracted    NodeType = "pdf.page.anno.extracted"
)

// Segment is one [Start,End) character span of a node's source text.
type Segment struct {
	Start int
	End   int
	Text  string
}

// Node is the unit persisted by Save: a node_id plus its node type, JSON
// metadata and ordered segments.
type Node struct {
	NodeID   string
	NodeType NodeType
	Metadata map[string]string
	Segments []Segment
}

// Mode selects the query semantics of spec.md §4.4.
type Mode int

const (
	// Matched requires all query tokens to be present (AND-only).
	Matched Mode = iota
	// MatchedPartial is OR-excluding-AND: at least one query token present,
	// but not all of them (so it never re-reports a Matched hit).
	MatchedPartial
)

// MatchedSegment is one segment of a Hit with the query tokens it contains.
// Every segment of the node is reported; MatchedTokens is empty for a
// segment that contains none of them.
type MatchedSegment struct {
	Index         int
	Start, End    int
	MatchedTokens []string // sorted lexicographically, spec.md §4.4
}

// Hit is one query result: a node plus its per-segment matches and rank.
type Hit struct {
	NodeID   string
	NodeType NodeType
	Metadata map[string]string
	Segments []MatchedSegment
	FtsRank  float64
}
