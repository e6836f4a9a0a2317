// Package pdfparse is the engine's one seam onto the two collaborators
// spec.md §1 declares out of scope: split_pages(path) -> per-page byte
// blobs, and extract(page_bytes) -> (plain_text, annotations). The engine
// never imports a PDF library outside this package.
package pdfparse

import "context"

// Annotation mirrors spec.md §3's Annotation shape before extracted_text
// has been computed by the page store (which intersects QuadPoints with
// the line boxes this package returns).
type Annotation struct {
	Kind      string
	Title     string
	Content   string
	URI       string
	CreatedAt *int64 // unix seconds, nil if absent
	UpdatedAt *int64
	QuadPoints []QuadPoint
}

// QuadPoint is one axis-aligned quadrilateral in PDF (bottom-left origin)
// user-space coordinates, as stored in a PDF annotation's /QuadPoints
// array (4 points, 8 numbers, per quad).
type QuadPoint struct {
	X1, Y1, X2, Y2, X3, Y3, X4, Y4 float64
}

// CharBox is one character's bounding box and the character itself, used
// by the page store's annotation-extraction pass (spec.md §4.3) to
// intersect quad points with actual glyph positions.
type CharBox struct {
	Rune          rune
	X0, Y0, X1, Y1 float64 // PDF user-space, bottom-left origin
}

// Line is one extracted text line together with its constituent character
// boxes, sorted top-to-bottom, left-to-right, per spec.md §4.3.
type Line struct {
	Text  string
	Boxes []CharBox
	Top   float64 // y_top = page_height - y, smaller is higher on the page
}

// PageContent is everything the page store needs from one split-out page.
type PageContent struct {
	PlainText   string
	Lines       []Line
	Annotations []Annotation
}

// Splitter deterministically splits a PDF file into single-page PDF blobs.
// The same page of the same file must yield byte-identical output across
// runs and across processes (spec.md §4.3 invariant).
type Splitter interface {
	SplitPages(ctx context.Context, path string) ([][]byte, error)
}

// Extractor extracts plain text, line/char geometry and annotations from a
// single-page PDF blob produced by a Splitter. Must be idempotent: running
// it twice on the same bytes yields byte-identical PageContent.
type Extractor interface {
	Extract(ctx context.Context, pageBytes []byte) (PageContent, error)
}
