package pagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docindex/hashid"
	"docindex/metrics"
	"docindex/pdfparse"
)

// Ingest implements spec.md §4.3's ingest(pdf_hash, file_path) -> PdfDocument:
//  1. If a pdfs row with this hash exists, return the cached metadata and
//     page list without touching the filesystem or the splitter/extractor.
//  2. Otherwise split the file into pages, hash each page, and for any
//     page_hash seen for the first time anywhere in the store, extract and
//     persist its shared files (page.pdf, page.snapshot.txt,
//     page.annotation.json).
//  3. Insert the pdfs row and one pages row per page inside a single
//     transaction so a crash never leaves a half-registered document.
func (s *Store) Ingest(ctx context.Context, cancel CancelFunc, pdfHash, absPath string, report ProgressFunc) (*PdfDocument, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if doc, err := s.DocumentOrNone(pdfHash); err != nil {
		return nil, err
	} else if doc != nil {
		return doc, nil
	}

	if err := checkCancel(cancel); err != nil {
		return nil, err
	}

	pageBlobs, err := s.splitter.SplitPages(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("pagestore: split %q: %w", absPath, err)
	}

	var extractedThisRun []string // page hashes newly written; rolled back on cancel
	refs := make([]PageRef, len(pageBlobs))

	for i, blob := range pageBlobs {
		if err := checkCancel(cancel); err != nil {
			s.rollbackExtracted(extractedThisRun)
			return nil, err
		}

		pageHash := hashid.Sum(blob)
		if report != nil {
			report(i+1, len(pageBlobs))
		}
		refs[i] = PageRef{PageIndex: i, PageHash: pageHash}

		n, err := s.refcount(pageHash)
		if err != nil {
			s.rollbackExtracted(extractedThisRun)
			return nil, err
		}
		if n > 0 {
			metrics.PagesDeduped.Inc()
			continue // shared with an existing document, already on disk
		}
		metrics.PagesExtracted.Inc()

		content, err := s.extractor.Extract(ctx, blob)
		if err != nil {
			s.rollbackExtracted(extractedThisRun)
			return nil, fmt.Errorf("pagestore: extract page %d of %q: %w", i, absPath, err)
		}
		sortLinesTopToBottom(content.Lines)

		annotationJSON, err := encodeAnnotations(content.Lines, content.Annotations)
		if err != nil {
			s.rollbackExtracted(extractedThisRun)
			return nil, err
		}

		if err := s.atomicWriteSet(map[string][]byte{
			s.pdfPath(pageHash):        blob,
			s.snapshotPath(pageHash):   []byte(content.PlainText),
			s.annotationPath(pageHash): annotationJSON,
		}); err != nil {
			s.rollbackExtracted(extractedThisRun)
			return nil, fmt.Errorf("pagestore: persist page %s: %w", pageHash, err)
		}
		extractedThisRun = append(extractedThisRun, pageHash)
	}

	meta := Metadata{} // not extracted: Splitter/Extractor return no document header fields, so it stays zero-valued
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		s.rollbackExtracted(extractedThisRun)
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.rollbackExtracted(extractedThisRun)
		return nil, err
	}
	res, err := tx.Exec(`INSERT INTO pdfs (hash, meta) VALUES (?, ?)`, pdfHash, string(metaJSON))
	if err != nil {
		tx.Rollback()
		s.rollbackExtracted(extractedThisRun)
		return nil, err
	}
	pdfID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		s.rollbackExtracted(extractedThisRun)
		return nil, err
	}
	for _, ref := range refs {
		if _, err := tx.Exec(`INSERT INTO pages (pdf_id, hash, idx) VALUES (?, ?, ?)`,
			pdfID, ref.PageHash, ref.PageIndex); err != nil {
			tx.Rollback()
			s.rollbackExtracted(extractedThisRun)
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		s.rollbackExtracted(extractedThisRun)
		return nil, err
	}

	return &PdfDocument{PdfHash: pdfHash, Metadata: meta, Pages: refs}, nil
}

// rollbackExtracted removes shared page files written during an ingest run
// that was interrupted before the pdfs/pages rows were committed, so a
// page_hash is never left on disk with a refcount of zero and no chance to
// be re-extracted cleanly on retry.
func (s *Store) rollbackExtracted(pageHashes []string) {
	for _, h := range pageHashes {
		s.removeIfExists(s.pdfPath(h))
		s.removeIfExists(s.snapshotPath(h))
		s.removeIfExists(s.annotationPath(h))
	}
}

func encodeAnnotations(lines []pdfparse.Line, anns []pdfparse.Annotation) ([]byte, error) {
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		out[i] = Annotation{
			Kind: a.Kind, Title: a.Title, Content: a.Content, URI: a.URI,
			CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt, QuadPoints: a.QuadPoints,
			ExtractedText: extractAnnotationText(lines, a.QuadPoints),
		}
	}
	return json.Marshal(out)
}
