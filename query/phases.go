package query

import (
	"context"
	"sort"

	"docindex/lexical"
	"docindex/vector"
)

// candidate is one fused, not-yet-shaped query hit.
type candidate struct {
	nodeID     string
	nodeType   lexical.NodeType
	ftsRank    float64
	distance   float64
	segments   []lexical.MatchedSegment
	segStats   []segStat
	similarity bool // true if this is a Phase-C (vector-only) hit
}

// runPhases implements spec.md §4.7 steps 3-5: Phase A (exact), Phase B
// (partial, only far enough to reach limit), Phase C (similarity,
// de-duplicated against A+B). When Phase A alone reaches limit, its results
// are returned and Phases B and C are skipped.
func (e *Engine) runPhases(ctx context.Context, keywords []string, queryVec []float32, limit int) ([]candidate, error) {
	a, err := e.phaseLexical(ctx, keywords, queryVec, lexical.Matched)
	if err != nil {
		return nil, err
	}
	sortCandidates(a)
	if len(a) > limit {
		a = a[:limit]
	}
	if len(a) >= limit {
		return a, nil
	}

	b, err := e.phaseLexical(ctx, keywords, queryVec, lexical.MatchedPartial)
	if err != nil {
		return nil, err
	}
	sortCandidates(b)
	need := limit - len(a)
	if len(b) > need {
		b = b[:need]
	}
	combined := append(a, b...)

	present := make(map[string]bool, len(combined))
	for _, c := range combined {
		present[c.nodeID] = true
	}

	hits, err := e.vec.Query(ctx, queryVec, limit)
	if err != nil {
		return nil, err
	}
	for _, h := range hits {
		if present[h.NodeID] {
			continue
		}
		combined = append(combined, candidate{
			nodeID: h.NodeID, nodeType: e.nodeTypeOf(h.NodeID), distance: h.Distance, similarity: true,
		})
	}
	return combined, nil
}

func (e *Engine) phaseLexical(ctx context.Context, keywords []string, queryVec []float32, mode lexical.Mode) ([]candidate, error) {
	hits, err := e.lex.Query(keywords, mode)
	if err != nil {
		return nil, err
	}
	out := make([]candidate, len(hits))
	for i, hit := range hits {
		refs := make([]vector.SegRef, len(hit.Segments))
		for j, seg := range hit.Segments {
			refs[j] = vector.SegRef{NodeID: hit.NodeID, SegIdx: seg.Index}
		}
		dists, err := e.vec.Distances(ctx, queryVec, refs)
		if err != nil {
			return nil, err
		}
		minDist := 0.0
		if len(dists) > 0 {
			minDist = dists[0]
			for _, d := range dists[1:] {
				if d < minDist {
					minDist = d
				}
			}
		}
		stats := make([]segStat, len(hit.Segments))
		for j, seg := range hit.Segments {
			p := len(keywords) - len(seg.MatchedTokens)
			d := 0.0
			if j < len(dists) {
				d = dists[j]
			}
			stats[j] = segStat{p: p, dist: d}
		}
		out[i] = candidate{
			nodeID: hit.NodeID, nodeType: hit.NodeType, ftsRank: hit.FtsRank,
			distance: minDist, segments: hit.Segments, segStats: stats,
		}
	}
	return out, nil
}

// nodeTypeOf infers the node type from a bare node id for Phase-C hits,
// which arrive without the lexical side table's type column. Annotation
// ids embed "/anno/{index}/content|extracted"; everything else is either a
// pdf_hash (pdf node) or a page_hash (pdf.page node) — indistinguishable
// from the id alone, so the shaping step resolves it via the coordinator.
func (e *Engine) nodeTypeOf(nodeID string) lexical.NodeType {
	switch {
	case hasAnnoSuffix(nodeID, "content"):
		return lexical.TypeAnnoContent
	case hasAnnoSuffix(nodeID, "extracted"):
		return lexical.TypeAnnoExtracted
	default:
		return "" // resolved by shape() via coordinator lookups
	}
}

func hasAnnoSuffix(id, kind string) bool {
	suffix := "/" + kind
	return len(id) > len(suffix) && id[len(id)-len(suffix):] == suffix
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].ftsRank != cs[j].ftsRank {
			return cs[i].ftsRank > cs[j].ftsRank
		}
		return cs[i].distance < cs[j].distance
	})
}
