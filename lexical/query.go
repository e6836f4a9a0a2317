package lexical

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Query runs tokens against the FT table in the given Mode and returns one
// Hit per matching node, each with its matched segments and fts_rank
// (spec.md §4.4). Results are unordered; callers sort as their phase
// requires (Phase A/B of the query engine sort by (-fts_rank, distance)).
func (s *Store) Query(tokens []string, mode Mode) ([]Hit, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	ftsQuery := buildFTSQuery(tokens, mode)

	rows, err := s.db.Query(
		`SELECT n.node_id, n.type, n.metadata, n.segments, c.content
		 FROM contents c JOIN nodes n ON n.content_id = c.rowid
		 WHERE c.content MATCH ?`, ftsQuery)
	if err != nil {
		return nil, fmt.Errorf("lexical: query: %w", err)
	}
	defer rows.Close()

	queryTokenSet := toSet(tokens)
	n := len(queryTokenSet)

	var hits []Hit
	for rows.Next() {
		var nodeID, nodeType, metaJSON, segmentsEnc, content string
		if err := rows.Scan(&nodeID, &nodeType, &metaJSON, &segmentsEnc, &content); err != nil {
			return nil, err
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			return nil, fmt.Errorf("lexical: decode metadata for %s: %w", nodeID, err)
		}
		decoded, err := decodeSegments(segmentsEnc)
		if err != nil {
			return nil, err
		}
		tokensPerSegment := splitTokenStream(content, decoded)

		matchedAny := false
		matchedAll := true
		var fullMatch bool // this node matches Matched mode (all query tokens present somewhere)
		nodeTokenSet := map[string]struct{}{}
		for _, toks := range tokensPerSegment {
			for _, t := range toks {
				nodeTokenSet[t] = struct{}{}
			}
		}
		for t := range queryTokenSet {
			if _, ok := nodeTokenSet[t]; !ok {
				matchedAll = false
			} else {
				matchedAny = true
			}
		}
		fullMatch = matchedAll
		if mode == Matched && !fullMatch {
			continue
		}
		if mode == MatchedPartial && (!matchedAny || fullMatch) {
			continue
		}

		segs := make([]MatchedSegment, len(tokensPerSegment))
		var ftsRank float64
		for i, toks := range tokensPerSegment {
			matched := intersectSorted(toks, queryTokenSet)
			p := n - len(matched)
			ftsRank += math.Pow(0.35, float64(p))
			segs[i] = MatchedSegment{
				Index: i, Start: decoded[i].Start, End: decoded[i].End,
				MatchedTokens: matched,
			}
		}

		hits = append(hits, Hit{
			NodeID: nodeID, NodeType: NodeType(nodeType), Metadata: meta,
			Segments: segs, FtsRank: ftsRank,
		})
	}
	return hits, rows.Err()
}

func buildFTSQuery(tokens []string, mode Mode) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	and := strings.Join(quoted, " AND ")
	switch mode {
	case Matched:
		return and
	case MatchedPartial:
		or := strings.Join(quoted, " OR ")
		return fmt.Sprintf("(%s) NOT (%s)", or, and)
	default:
		return and
	}
}

func toSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}

// intersectSorted returns the tokens in `toks` present in `set`, deduped
// and sorted lexicographically per spec.md §4.4's highlighting contract.
func intersectSorted(toks []string, set map[string]struct{}) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range toks {
		if _, ok := set[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
