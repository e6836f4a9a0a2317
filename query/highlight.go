package query

import (
	"sort"
	"strings"

	"docindex/lexical"
)

// segStat carries the per-segment statistics the spec's highlight
// computation needs: the lexical "position" p = n - matched_count (smaller
// is a better match) and the segment's own vector distance.
type segStat struct {
	p    int
	dist float64
}

// computeHighlights builds spec.md §4.7's HighlightSegment list for one
// node: for each matched token inside [start,end) of the lowercased source
// text, find every non-overlapping occurrence and emit a (offset, length)
// span; mark as Main the segment(s) that simultaneously achieve the
// smallest p and the smallest per-segment vector distance across the node.
// When retainUnmatched is false (a lexical-phase hit), segments with zero
// spans are dropped; a similarity-only hit retains them all.
func computeHighlights(content string, segs []lexical.MatchedSegment, stats []segStat, retainUnmatched bool) []HighlightSegment {
	if len(segs) == 0 {
		return nil
	}
	lower := strings.ToLower(content)

	minP := stats[0].p
	minDist := stats[0].dist
	for _, st := range stats[1:] {
		if st.p < minP {
			minP = st.p
		}
		if st.dist < minDist {
			minDist = st.dist
		}
	}

	out := make([]HighlightSegment, 0, len(segs))
	for i, seg := range segs {
		spans := findSpans(lower, seg.Start, seg.End, seg.MatchedTokens)
		if len(spans) == 0 && !retainUnmatched {
			continue
		}
		out = append(out, HighlightSegment{
			Start: seg.Start, End: seg.End,
			Main:  stats[i].p == minP && stats[i].dist == minDist,
			Spans: spans,
		})
	}
	return out
}

// findSpans scans lower[start:end] for every non-overlapping occurrence of
// each token (advancing by token length on a hit), returning spans sorted
// ascending by offset (spec.md §4.7).
func findSpans(lower string, start, end int, tokens []string) []Span {
	if start < 0 {
		start = 0
	}
	if end > len(lower) {
		end = len(lower)
	}
	if start >= end {
		return nil
	}
	window := lower[start:end]

	var spans []Span
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		pos := 0
		for {
			idx := strings.Index(window[pos:], tok)
			if idx < 0 {
				break
			}
			off := pos + idx
			spans = append(spans, Span{Offset: off, Length: len(tok)})
			pos = off + len(tok)
			if pos >= len(window) {
				break
			}
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Offset < spans[j].Offset })
	return spans
}
