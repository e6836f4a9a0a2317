package pagestore

import (
	"sort"
	"strings"

	"docindex/pdfparse"
)

// extractAnnotationText implements spec.md §4.3's annotation extraction:
// for each annotation with QuadPoints, build one axis-aligned bounding
// polygon per quad, then for each text line whose box overlaps any polygon
// emit the subsequence of characters whose bounding box is contained by
// any polygon after a 1% shrink toward the character center. Lines are
// assumed already sorted top-to-bottom by the caller (pdfparse.Extractor
// contract).
func extractAnnotationText(lines []pdfparse.Line, quads []pdfparse.QuadPoint) string {
	if len(quads) == 0 {
		return ""
	}
	polys := make([]box, len(quads))
	for i, q := range quads {
		polys[i] = quadBounds(q)
	}

	var b strings.Builder
	for _, line := range lines {
		if !lineOverlapsAny(line, polys) {
			continue
		}
		for _, cb := range line.Boxes {
			charBox := box{x0: cb.X0, y0: cb.Y0, x1: cb.X1, y1: cb.Y1}
			shrunk := shrinkToward(charBox, 0.01, charCenter(charBox))
			if containedByAny(shrunk, polys) {
				b.WriteRune(cb.Rune)
			}
		}
	}
	return normalizeWhitespace(b.String())
}

type box struct{ x0, y0, x1, y1 float64 }

type point struct{ x, y float64 }

func quadBounds(q pdfparse.QuadPoint) box {
	xs := []float64{q.X1, q.X2, q.X3, q.X4}
	ys := []float64{q.Y1, q.Y2, q.Y3, q.Y4}
	b := box{x0: xs[0], x1: xs[0], y0: ys[0], y1: ys[0]}
	for i := 1; i < 4; i++ {
		if xs[i] < b.x0 {
			b.x0 = xs[i]
		}
		if xs[i] > b.x1 {
			b.x1 = xs[i]
		}
		if ys[i] < b.y0 {
			b.y0 = ys[i]
		}
		if ys[i] > b.y1 {
			b.y1 = ys[i]
		}
	}
	return b
}

func charCenter(b box) point {
	return point{x: (b.x0 + b.x1) / 2, y: (b.y0 + b.y1) / 2}
}

// shrinkToward insets `b` by `frac` of its size toward `c`, implementing
// the spec's "1% inset on the target rectangle when testing containment".
func shrinkToward(b box, frac float64, c point) box {
	dx := (b.x1 - b.x0) * frac
	dy := (b.y1 - b.y0) * frac
	return box{
		x0: b.x0 + dx*sign(c.x-b.x0), x1: b.x1 - dx*sign(b.x1-c.x),
		y0: b.y0 + dy*sign(c.y-b.y0), y1: b.y1 - dy*sign(b.y1-c.y),
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func overlaps(a, b box) bool {
	return a.x0 < b.x1 && a.x1 > b.x0 && a.y0 < b.y1 && a.y1 > b.y0
}

func contains(outer, inner box) bool {
	return inner.x0 >= outer.x0 && inner.x1 <= outer.x1 && inner.y0 >= outer.y0 && inner.y1 <= outer.y1
}

func lineOverlapsAny(line pdfparse.Line, polys []box) bool {
	if len(line.Boxes) == 0 {
		return false
	}
	lb := box{x0: 1e18, y0: 1e18, x1: -1e18, y1: -1e18}
	for _, cb := range line.Boxes {
		if cb.X0 < lb.x0 {
			lb.x0 = cb.X0
		}
		if cb.Y0 < lb.y0 {
			lb.y0 = cb.Y0
		}
		if cb.X1 > lb.x1 {
			lb.x1 = cb.X1
		}
		if cb.Y1 > lb.y1 {
			lb.y1 = cb.Y1
		}
	}
	for _, p := range polys {
		if overlaps(lb, p) {
			return true
		}
	}
	return false
}

func containedByAny(b box, polys []box) bool {
	for _, p := range polys {
		if contains(p, b) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses consecutive newlines to one '\n' and runs
// of other whitespace to one space (spec.md §4.3).
func normalizeWhitespace(s string) string {
	var out strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\n':
			out.WriteRune('\n')
			for i < len(runes) && runes[i] == '\n' {
				i++
			}
		case r == ' ' || r == '\t' || r == '\r':
			out.WriteRune(' ')
			for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\r') {
				i++
			}
		default:
			out.WriteRune(r)
			i++
		}
	}
	return strings.TrimSpace(out.String())
}

// sortLinesTopToBottom orders lines by Top ascending (PDF origin is
// bottom-left; Top = page_height - y per pdfparse.Line's contract).
func sortLinesTopToBottom(lines []pdfparse.Line) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Top < lines[j].Top })
}
