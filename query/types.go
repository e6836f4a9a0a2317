// Package query implements the Query Engine of spec.md §4.7: keyword
// extraction, the exact/partial/similarity phase pipeline, and result
// shaping into Pdf/Page/PageAnno items with highlight spans.
package query

// Span is one highlighted, non-overlapping occurrence of a matched token
// inside a segment, as a (offset-from-segment-start, length) pair.
type Span struct {
	Offset int
	Length int
}

// HighlightSegment is one node segment annotated with its highlight spans.
type HighlightSegment struct {
	Start, End int
	Main       bool
	Spans      []Span
}

// PdfQueryItem is a "pdf"-type result (spec.md §4.7).
type PdfQueryItem struct {
	Paths    []string
	Metadata map[string]string
	Distance float64
}

// PageAnnoQueryItem is one annotation hit attached to a PageQueryItem.
type PageAnnoQueryItem struct {
	Kind              string
	Title             string
	Distance          float64
	HighlightSegments []HighlightSegment
}

// PageQueryItem is a "pdf.page"-type result (spec.md §4.7).
type PageQueryItem struct {
	PdfFiles          []string
	Content           string
	Distance          float64
	HighlightSegments []HighlightSegment
	Annotations       []PageAnnoQueryItem
}

// Result is the engine's fused result set for one query. It is not
// truncated to limit: Phases A+B contribute at most limit candidates and
// Phase C up to limit more.
type Result struct {
	Pdfs     []PdfQueryItem
	Pages    []PageQueryItem
	Keywords []string
}
