package query

import (
	"context"
	"strconv"
	"strings"

	"docindex/lexical"
)

// shape implements spec.md §4.7's result shaping: each candidate becomes a
// PdfQueryItem or a PageQueryItem, and annotation candidates are attached
// to their parent page (orphans, whose parent page isn't itself a hit,
// are dropped).
func (e *Engine) shape(ctx context.Context, candidates []candidate) (Result, error) {
	var result Result
	pageIndex := map[string]*PageQueryItem{}
	pageOrder := []string{}
	var pendingAnnos []candidate

	for _, c := range candidates {
		nodeType := c.nodeType
		if nodeType == "" {
			resolved, err := e.resolveBareNodeType(c.nodeID)
			if err != nil {
				return Result{}, err
			}
			if resolved == "" {
				continue // neither a pdf nor a page hash is known; drop
			}
			nodeType = resolved
		}

		switch nodeType {
		case lexical.TypePdf:
			item, err := e.shapePdf(c)
			if err != nil {
				return Result{}, err
			}
			if item != nil {
				result.Pdfs = append(result.Pdfs, *item)
			}
		case lexical.TypePdfPage:
			item, err := e.shapePage(c)
			if err != nil {
				return Result{}, err
			}
			if item == nil {
				continue
			}
			pageIndex[c.nodeID] = item
			pageOrder = append(pageOrder, c.nodeID)
		case lexical.TypeAnnoContent, lexical.TypeAnnoExtracted:
			pendingAnnos = append(pendingAnnos, c)
		}
	}

	for _, c := range pendingAnnos {
		pageHash, _, kind, ok := parseAnnoNodeID(c.nodeID)
		if !ok {
			continue
		}
		parent, ok := pageIndex[pageHash]
		if !ok {
			continue // orphan: parent page not in this result set
		}
		retain := c.similarity
		var highlights []HighlightSegment
		if len(c.segments) > 0 {
			highlights = computeHighlights(e.annoSourceText(pageHash, c.nodeID, kind), c.segments, c.segStats, retain)
		}
		parent.Annotations = append(parent.Annotations, PageAnnoQueryItem{
			Kind: kind, Distance: c.distance, HighlightSegments: highlights,
		})
	}

	for _, pageHash := range pageOrder {
		result.Pages = append(result.Pages, *pageIndex[pageHash])
	}
	return result, nil
}

func (e *Engine) resolveBareNodeType(nodeID string) (lexical.NodeType, error) {
	if doc, err := e.coord.DocumentOrNone(nodeID); err != nil {
		return "", err
	} else if doc != nil {
		return lexical.TypePdf, nil
	}
	if _, err := e.coord.Page(nodeID); err == nil {
		return lexical.TypePdfPage, nil
	}
	return "", nil
}

func (e *Engine) shapePdf(c candidate) (*PdfQueryItem, error) {
	doc, err := e.coord.DocumentOrNone(c.nodeID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	refs, err := e.coord.PathsForPdfHash(c.nodeID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(refs))
	for i, r := range refs {
		paths[i] = r.Scope + ":" + r.Path
	}
	return &PdfQueryItem{
		Paths:    paths,
		Metadata: map[string]string{"author": doc.Metadata.Author, "modified_at": doc.Metadata.ModifiedAt, "producer": doc.Metadata.Producer},
		Distance: c.distance,
	}, nil
}

func (e *Engine) shapePage(c candidate) (*PageQueryItem, error) {
	page, err := e.coord.Page(c.nodeID)
	if err != nil {
		return nil, nil
	}
	refs, err := e.coord.PathsForPageHash(c.nodeID)
	if err != nil {
		return nil, err
	}
	files := make([]string, len(refs))
	for i, r := range refs {
		files[i] = r.Scope + ":" + r.Path
	}

	var highlights []HighlightSegment
	if len(c.segments) > 0 {
		highlights = computeHighlights(page.PlainText, c.segments, c.segStats, c.similarity)
	}
	return &PageQueryItem{
		PdfFiles: files, Content: page.PlainText, Distance: c.distance,
		HighlightSegments: highlights,
	}, nil
}

// annoSourceText fetches the annotation's own source text (content or
// extracted_text) for highlight-span scanning.
func (e *Engine) annoSourceText(pageHash, nodeID, kind string) string {
	page, err := e.coord.Page(pageHash)
	if err != nil {
		return ""
	}
	_, idx, _, ok := parseAnnoNodeID(nodeID)
	if !ok || idx < 0 || idx >= len(page.Annotations) {
		return ""
	}
	if kind == "content" {
		return page.Annotations[idx].Content
	}
	return page.Annotations[idx].ExtractedText
}

// parseAnnoNodeID splits "{page_hash}/anno/{index}/{content|extracted}".
func parseAnnoNodeID(id string) (pageHash string, index int, kind string, ok bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 4 || parts[1] != "anno" {
		return "", 0, "", false
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, "", false
	}
	return parts[0], idx, parts[3], true
}
