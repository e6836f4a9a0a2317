// Package pagestore implements the content-addressed PDF page cache of
// spec.md §4.3: pdf_hash/page_hash keyed, refcounted, backed by
// parser/pdf_cache/pages.sqlite3 and parser/pdf_cache/pages/ on disk.
package pagestore

import "docindex/pdfparse"

// Metadata is a PdfDocument's header fields (spec.md §3); all optional.
type Metadata struct {
	Author     string
	ModifiedAt string
	Producer   string
}

// PdfDocument is the cached, extracted representation of one PDF file,
// identified by the SHA-512 hash of its whole-file bytes.
type PdfDocument struct {
	PdfHash  string
	Metadata Metadata
	Pages    []PageRef
}

// PageRef is one (pdf_hash, page_index) -> page_hash mapping.
type PageRef struct {
	PageIndex int
	PageHash  string
}

// ProgressFunc reports (i, n): i of n pages split/extracted so far within
// one Ingest call (spec.md §4.8's ParseProgress(i, n) event). May be nil.
type ProgressFunc func(i, n int)

// Page is the shared, refcounted content of one unique page_hash.
type Page struct {
	PageHash    string
	PlainText   string
	Annotations []Annotation
}

// Annotation mirrors spec.md §3, with ExtractedText filled in by the
// quad-point intersection pass (annotations.go).
type Annotation struct {
	Kind          string
	Title         string
	Content       string
	URI           string
	CreatedAt     *int64
	UpdatedAt     *int64
	QuadPoints    []pdfparse.QuadPoint
	ExtractedText string
}
