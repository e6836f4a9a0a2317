package coordinator

import "docindex/pagestore"

// PathRef identifies one on-disk file registered under a scope.
type PathRef struct {
	Scope string
	Path  string
}

// PathsForPdfHash returns every (scope, path) currently registered against
// pdfHash, used by the query engine to shape a "pdf" hit's file paths.
func (c *Coordinator) PathsForPdfHash(pdfHash string) ([]PathRef, error) {
	rows, err := c.db.Query(`SELECT scope, path FROM files WHERE hash = ?`, pdfHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PathRef
	for rows.Next() {
		var r PathRef
		if err := rows.Scan(&r.Scope, &r.Path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PdfHashesForPageHash returns every pdf_hash whose page list references
// pageHash, used by the query engine to shape a "pdf.page" hit's
// containing-document file paths.
func (c *Coordinator) PdfHashesForPageHash(pageHash string) ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT pdf_hash FROM pages WHERE hash = ?`, pageHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// PathsForPageHash resolves a page_hash all the way to the file paths of
// every document that contains it.
func (c *Coordinator) PathsForPageHash(pageHash string) ([]PathRef, error) {
	pdfHashes, err := c.PdfHashesForPageHash(pageHash)
	if err != nil {
		return nil, err
	}
	var out []PathRef
	for _, h := range pdfHashes {
		refs, err := c.PathsForPdfHash(h)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
	}
	return out, nil
}

// Page exposes the underlying page store lookup for the query engine's
// result-shaping step.
func (c *Coordinator) Page(pageHash string) (*pagestore.Page, error) {
	return c.pageStore.Page(pageHash)
}

// DocumentOrNone exposes the underlying page store document lookup for the
// query engine's result-shaping step.
func (c *Coordinator) DocumentOrNone(pdfHash string) (*pagestore.PdfDocument, error) {
	return c.pageStore.DocumentOrNone(pdfHash)
}
