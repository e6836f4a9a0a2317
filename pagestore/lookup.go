package pagestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DocumentOrNone returns the cached PdfDocument for pdfHash, or nil if no
// such document has ever been ingested.
func (s *Store) DocumentOrNone(pdfHash string) (*PdfDocument, error) {
	var pdfID int64
	var metaJSON string
	err := s.db.QueryRow(`SELECT id, meta FROM pdfs WHERE hash = ?`, pdfHash).Scan(&pdfID, &metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pagestore: lookup pdf %s: %w", pdfHash, err)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("pagestore: decode metadata for %s: %w", pdfHash, err)
	}

	rows, err := s.db.Query(`SELECT hash, idx FROM pages WHERE pdf_id = ? ORDER BY idx ASC`, pdfID)
	if err != nil {
		return nil, fmt.Errorf("pagestore: list pages for %s: %w", pdfHash, err)
	}
	defer rows.Close()

	var refs []PageRef
	for rows.Next() {
		var ref PageRef
		if err := rows.Scan(&ref.PageHash, &ref.PageIndex); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PdfDocument{PdfHash: pdfHash, Metadata: meta, Pages: refs}, nil
}

// Page returns the shared content for pageHash: its plain-text snapshot
// and decoded annotations. Returns an error if no page with this hash has
// ever been ingested (its refcount would be zero, which should not happen
// for a hash obtained from a PdfDocument returned by Ingest/DocumentOrNone).
func (s *Store) Page(pageHash string) (*Page, error) {
	n, err := s.refcount(pageHash)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("pagestore: unknown page %s", pageHash)
	}

	text, err := os.ReadFile(s.snapshotPath(pageHash))
	if err != nil {
		return nil, fmt.Errorf("pagestore: read snapshot for %s: %w", pageHash, err)
	}

	raw, err := os.ReadFile(s.annotationPath(pageHash))
	if err != nil {
		return nil, fmt.Errorf("pagestore: read annotations for %s: %w", pageHash, err)
	}
	var anns []Annotation
	if err := json.Unmarshal(raw, &anns); err != nil {
		return nil, fmt.Errorf("pagestore: decode annotations for %s: %w", pageHash, err)
	}

	return &Page{PageHash: pageHash, PlainText: string(text), Annotations: anns}, nil
}
