// Package coordinator implements the Index Coordinator of spec.md §4.6: it
// consumes scanner events, reconciles the coordinator DB
// (indexes/index.sqlite3), and drives the Page Store + lexical + vector
// indexes through the ingest and release pipelines.
package coordinator

import (
	"docindex/pagestore"
	"docindex/progress"
)

// CancelFunc reports whether the caller has requested cancellation;
// reused verbatim from pagestore so a single cooperative-cancellation
// contract threads through the whole ingest call chain.
type CancelFunc = pagestore.CancelFunc

// ProgressFunc reports one ParseProgress/IndexProgress(i, n) step within a
// single ProcessEvent call (spec.md §4.8). May be nil.
type ProgressFunc func(kind progress.Kind, i, n int)

// PageRow is one coordinator pages table row: a page_hash at a given index
// within a given pdf_hash.
type PageRow struct {
	PdfHash   string
	PageIndex int
	PageHash  string
}
