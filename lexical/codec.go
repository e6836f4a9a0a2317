package lexical

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeSegments produces the side table's segments string, one
// "len:start-end" triple per segment joined by commas, where len is the
// number of tokens this segment contributes to the FT row's token stream
// (spec.md §4.4: "len:start-end,len:start-end,… aligned with the FT row's
// token stream").
func encodeSegments(segs []Segment, tokensPerSegment [][]string) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = fmt.Sprintf("%d:%d-%d", len(tokensPerSegment[i]), s.Start, s.End)
	}
	return strings.Join(parts, ",")
}

// decodedSegment is one parsed entry from an encoded segments string.
type decodedSegment struct {
	TokenLen   int
	Start, End int
}

// decodeSegments parses the side table's segments string back into its
// per-segment (token count, char range) triples.
func decodeSegments(encoded string) ([]decodedSegment, error) {
	if encoded == "" {
		return nil, nil
	}
	parts := strings.Split(encoded, ",")
	out := make([]decodedSegment, len(parts))
	for i, p := range parts {
		lenStr, rangeStr, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("lexical: malformed segment entry %q", p)
		}
		tokenLen, err := strconv.Atoi(lenStr)
		if err != nil {
			return nil, fmt.Errorf("lexical: malformed segment length %q: %w", p, err)
		}
		startStr, endStr, ok := strings.Cut(rangeStr, "-")
		if !ok {
			return nil, fmt.Errorf("lexical: malformed segment range %q", p)
		}
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return nil, fmt.Errorf("lexical: malformed segment start %q: %w", p, err)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return nil, fmt.Errorf("lexical: malformed segment end %q: %w", p, err)
		}
		out[i] = decodedSegment{TokenLen: tokenLen, Start: start, End: end}
	}
	return out, nil
}

// splitTokenStream partitions the full space-joined token stream (the FT
// row's content column) into one slice of tokens per segment, in the same
// order the segments were encoded.
func splitTokenStream(content string, segs []decodedSegment) [][]string {
	var all []string
	if content != "" {
		all = strings.Split(content, " ")
	}
	out := make([][]string, len(segs))
	pos := 0
	for i, s := range segs {
		end := pos + s.TokenLen
		if end > len(all) {
			end = len(all)
		}
		out[i] = append([]string(nil), all[pos:end]...)
		pos = end
	}
	return out
}
