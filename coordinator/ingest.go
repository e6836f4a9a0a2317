package coordinator

import (
	"context"
	"fmt"

	"docindex/docerr"
	"docindex/lexical"
	"docindex/pagestore"
	"docindex/progress"
)

// ingestPipeline implements spec.md §4.6's ingest pipeline: ingest the PDF
// into the page store, register its pages in the coordinator DB (inside
// tx, the same transaction ProcessEvent uses for the files row), and save
// "pdf"/"pdf.page"/"pdf.page.anno.*" nodes to both indexes. Cancellable and
// revertible: a cooperative interrupt mid-way removes every node this call
// saved.
func (c *Coordinator) ingestPipeline(ctx context.Context, tx querier, cancel CancelFunc, pdfHash, absPath string, report ProgressFunc) error {
	var parseReport pagestore.ProgressFunc
	if report != nil {
		parseReport = func(i, n int) { report(progress.ParseProgress, i, n) }
	}
	doc, err := c.pageStore.Ingest(ctx, cancel, pdfHash, absPath, parseReport)
	if err != nil {
		return err
	}

	var saved []string
	rollback := func() {
		for _, id := range saved {
			c.removeNode(ctx, id)
		}
	}

	metaText := fmt.Sprintf("Author: %s\nModified At: %s\nProducer: %s\n",
		doc.Metadata.Author, doc.Metadata.ModifiedAt, doc.Metadata.Producer)
	if err := c.saveNode(ctx, pdfHash, lexical.TypePdf, map[string]string{"type": "pdf"}, metaText); err != nil {
		rollback()
		return err
	}
	saved = append(saved, pdfHash)

	pageCount := len(doc.Pages)
	for pageNum, ref := range doc.Pages {
		if err := checkCancel(cancel); err != nil {
			rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO pages (pdf_hash, page_index, hash) VALUES (?, ?, ?)`,
			pdfHash, ref.PageIndex, ref.PageHash); err != nil {
			rollback()
			return err
		}
		if report != nil {
			report(progress.IndexProgress, pageNum+1, pageCount)
		}

		n, err := countPagesByHash(tx, ref.PageHash)
		if err != nil {
			rollback()
			return err
		}
		if n != 1 {
			continue // another pdf already registered this page's nodes
		}

		page, err := c.pageStore.Page(ref.PageHash)
		if err != nil {
			rollback()
			return err
		}
		if err := c.saveNode(ctx, ref.PageHash, lexical.TypePdfPage, map[string]string{"type": "pdf.page"}, page.PlainText); err != nil {
			rollback()
			return err
		}
		saved = append(saved, ref.PageHash)

		for ai, ann := range page.Annotations {
			if ann.Content != "" {
				id := annotationNodeID(ref.PageHash, ai, "content")
				if err := c.saveNode(ctx, id, lexical.TypeAnnoContent, map[string]string{"type": "pdf.page.anno.content"}, ann.Content); err != nil {
					rollback()
					return err
				}
				saved = append(saved, id)
			}
			if ann.ExtractedText != "" {
				id := annotationNodeID(ref.PageHash, ai, "extracted")
				if err := c.saveNode(ctx, id, lexical.TypeAnnoExtracted, map[string]string{"type": "pdf.page.anno.extracted"}, ann.ExtractedText); err != nil {
					rollback()
					return err
				}
				saved = append(saved, id)
			}
		}
	}
	return nil
}

func annotationNodeID(pageHash string, annoIndex int, kind string) string {
	return fmt.Sprintf("%s/anno/%d/%s", pageHash, annoIndex, kind)
}

func checkCancel(cancel CancelFunc) error {
	if cancel != nil && cancel() {
		return docerr.Cancelled
	}
	return nil
}
