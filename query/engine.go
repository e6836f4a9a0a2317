package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docindex/coordinator"
	"docindex/embedder"
	"docindex/lexical"
	"docindex/metrics"
	"docindex/vector"
)

// keywordExtractor is the subset of segment.Segmenter the query engine
// needs; kept narrow so a caller can supply a model-backed implementation
// without the engine importing more of segment than it uses.
type keywordExtractor interface {
	Keywords(text string) []string
}

// Engine is spec.md §4.7's Query Engine: fuses lexical exact/partial hits
// with vector similarity hits into one ranked, shaped result set.
type Engine struct {
	lex   *lexical.Store
	vec   *vector.Store
	coord *coordinator.Coordinator
	seg   keywordExtractor
	emb   embedder.Embedder
}

// New wires an Engine to its already-open collaborators.
func New(lex *lexical.Store, vec *vector.Store, coord *coordinator.Coordinator, seg keywordExtractor, emb embedder.Embedder) *Engine {
	return &Engine{lex: lex, vec: vec, coord: coord, seg: seg, emb: emb}
}

// Query implements spec.md §4.7's query(text, limit) -> (nodes, keywords).
func (e *Engine) Query(ctx context.Context, text string, limit int) (Result, error) {
	keywords := e.seg.Keywords(text)
	if len(keywords) == 0 {
		return Result{Keywords: keywords}, nil
	}
	queryText := strings.Join(keywords, " ")

	vecs, err := e.emb.Embed(ctx, []string{queryText})
	if err != nil {
		return Result{}, fmt.Errorf("query: embed query: %w", err)
	}
	queryVec := vecs[0]

	phaseStart := time.Now()
	candidates, err := e.runPhases(ctx, keywords, queryVec, limit)
	metrics.QueryDuration.WithLabelValues("rank").Observe(time.Since(phaseStart).Seconds())
	if err != nil {
		return Result{}, err
	}

	shapeStart := time.Now()
	result, err := e.shape(ctx, candidates)
	metrics.QueryDuration.WithLabelValues("shape").Observe(time.Since(shapeStart).Seconds())
	if err != nil {
		return Result{}, err
	}
	result.Keywords = keywords
	return result, nil
}
