// Package segment is the engine's seam onto spec.md §1's sentence
// segmentation / language detection collaborator: segment(text) and
// keywords(text). The default implementation needs no model weights so the
// engine runs standalone; the lexical index tokenizes with this package's
// Tokenize, so that a query's keywords and the index's tokens agree on what
// a "token" is.
package segment

import (
	"strings"
	"sync"
	"unicode"
)

// Segment is a contiguous character range of a node's text (spec.md §3).
type Segment struct {
	Start int
	End   int
	Text  string
}

// Segmenter splits text into sentence-level Segments and extracts
// query/document keywords.
type Segmenter interface {
	Segment(text string) []Segment
	Keywords(text string) []string
}

// Default is a process-wide Segmenter behind a lock-guarded cache, mirroring
// the "process-wide Segmenter/embedder caches" design note in spec.md §9:
// a per-language model cache guarded by a mutex. The default segmenter has
// no per-language model (rule-based), but keeps the same guarded-singleton
// shape so swapping in a model-backed Segmenter is a drop-in change.
type Default struct {
	mu        sync.Mutex
	stopwords map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultInst *Default
)

// Get returns the process-wide default Segmenter, initializing it under a
// lock on first use.
func Get() *Default {
	defaultOnce.Do(func() {
		defaultInst = &Default{stopwords: buildStopwords()}
	})
	return defaultInst
}

// Segment splits `text` into sentences using terminal punctuation followed
// by whitespace as the boundary, the same heuristic a reader applies
// without a language model.
func (d *Default) Segment(text string) []Segment {
	var segs []Segment
	start := 0
	runes := []rune(text)
	n := len(runes)
	byteOf := make([]int, n+1)
	b := 0
	for i, r := range runes {
		byteOf[i] = b
		b += len(string(r))
	}
	byteOf[n] = b

	flush := func(endRuneIdx int) {
		s := byteOf[start]
		e := byteOf[endRuneIdx]
		seg := strings.TrimSpace(text[s:e])
		if seg == "" {
			return
		}
		// Recompute trimmed offsets within [s,e).
		trimStart := s + strings.Index(text[s:e], seg)
		segs = append(segs, Segment{Start: trimStart, End: trimStart + len(seg), Text: seg})
	}

	for i := 0; i < n; i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < n && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 || i == n-1 {
				flush(j)
				start = j
			}
		}
	}
	if start < n {
		flush(n)
	}
	if len(segs) == 0 && strings.TrimSpace(text) != "" {
		trimmed := strings.TrimSpace(text)
		s := strings.Index(text, trimmed)
		segs = append(segs, Segment{Start: s, End: s + len(trimmed), Text: trimmed})
	}
	return segs
}

// Keywords tokenizes `text` with the same separator rules as the lexical
// index and drops stopwords and reserved query words, leaving the terms a
// user's natural-language query actually means to match on.
func (d *Default) Keywords(text string) []string {
	d.mu.Lock()
	stop := d.stopwords
	d.mu.Unlock()

	tokens := Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, isStop := stop[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Tokenize lowercases, folds diacritics are handled by the lexical index's
// own Unicode-61 tokenizer; this pure-Go tokenizer is used for keyword
// extraction and shares the custom separator set from spec.md §4.4.
func Tokenize(text string) []string {
	const seps = "-+:!\"'{},."
	isSep := func(r rune) bool {
		if strings.ContainsRune(seps, r) {
			return true
		}
		return unicode.IsSpace(r)
	}
	fields := strings.FieldsFunc(text, isSep)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(f)
		if f == "" {
			continue
		}
		if isReserved(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isReserved(tok string) bool {
	switch tok {
	case "near", "and", "or", "not":
		return true
	}
	return false
}

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "of", "in", "on", "at", "to", "for", "is", "are",
		"was", "were", "be", "been", "by", "with", "as", "it", "this",
		"that", "from", "or", "and", "but", "not", "no", "so", "if", "than",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
