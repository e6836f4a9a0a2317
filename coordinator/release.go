package coordinator

import "context"

// releasePipeline implements spec.md §4.6's release pipeline: not
// cancellable, best-effort. Errors are logged rather than returned, since a
// dropped document must not block the rest of the scan. The `pages` row
// deletion runs inside tx, the same transaction ProcessEvent uses for the
// files row.
func (c *Coordinator) releasePipeline(ctx context.Context, tx querier, pdfHash string) {
	rows, err := pagesForPdf(tx, pdfHash)
	if err != nil {
		c.log.Error("release: list pages failed", "pdf_hash", pdfHash, "err", err)
		return
	}

	if err := deletePagesForPdf(tx, pdfHash); err != nil {
		c.log.Error("release: delete pages failed", "pdf_hash", pdfHash, "err", err)
		return
	}
	c.removeNode(ctx, pdfHash)

	seen := map[string]bool{}
	for _, row := range rows {
		if seen[row.PageHash] {
			continue
		}
		seen[row.PageHash] = true

		n, err := countPagesByHash(tx, row.PageHash)
		if err != nil {
			c.log.Error("release: count pages failed", "page_hash", row.PageHash, "err", err)
			continue
		}
		if n != 0 {
			continue // still referenced by another document
		}

		page, err := c.pageStore.Page(row.PageHash)
		if err != nil {
			c.log.Warn("release: page lookup failed", "page_hash", row.PageHash, "err", err)
		} else {
			for ai, ann := range page.Annotations {
				if ann.Content != "" {
					c.removeNode(ctx, annotationNodeID(row.PageHash, ai, "content"))
				}
				if ann.ExtractedText != "" {
					c.removeNode(ctx, annotationNodeID(row.PageHash, ai, "extracted"))
				}
			}
		}
		c.removeNode(ctx, row.PageHash)
	}

	if err := c.pageStore.Release(pdfHash); err != nil {
		c.log.Error("release: page store release failed", "pdf_hash", pdfHash, "err", err)
	}
}
