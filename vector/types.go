// Package vector implements the embedded vector index of spec.md §4.5 over
// github.com/philippgille/chromem-go, storing one embedding per segment
// under id "{node_id}/{segment_index}".
package vector

// Segment is one [Start,End) character span of a node's source text, with
// its pre-computed embedding input text.
type Segment struct {
	Start int
	End   int
	Text  string
}

// SegRef addresses one segment for a distances() lookup.
type SegRef struct {
	NodeID  string
	SegIdx  int
}

// NodeHit is one query() result: a node and the minimum distance over its
// matching segments (spec.md §4.5: "a node's vector_distance is the
// minimum over its segments").
type NodeHit struct {
	NodeID   string
	Distance float64
}
