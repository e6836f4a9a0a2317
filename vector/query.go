package vector

import (
	"context"
	"fmt"
	"sort"

	"docindex/embedder"
)

// Distances fetches the stored embeddings for each listed segment and
// returns the configured-metric distance to queryVec, in the same order as
// refs (spec.md §4.5's distances(query_vec, [(node_id, seg_idx), …])).
func (s *Store) Distances(ctx context.Context, queryVec []float32, refs []SegRef) ([]float64, error) {
	out := make([]float64, len(refs))
	for i, ref := range refs {
		doc, err := s.col.GetByID(ctx, segID(ref.NodeID, ref.SegIdx))
		if err != nil {
			return nil, fmt.Errorf("vector: get %s/%d: %w", ref.NodeID, ref.SegIdx, err)
		}
		out[i] = embedder.Distance(s.metric, queryVec, doc.Embedding)
	}
	return out, nil
}

// overfetchFactor widens the ANN candidate window beyond k because
// chromem-go's QueryEmbedding always ranks by cosine similarity internally;
// re-ranking the wider window by the configured metric (§4.5) keeps L2/IP
// queries correct unless the two orderings disagree beyond this margin —
// see DESIGN.md.
const overfetchFactor = 4

// Query runs an ANN top-k search over all segments, re-ranks the candidate
// set by the configured metric, groups back to nodes keeping the minimum
// distance per node, and returns the k best nodes ascending by distance
// (spec.md §4.5).
func (s *Store) Query(ctx context.Context, queryVec []float32, k int) ([]NodeHit, error) {
	if k <= 0 {
		return nil, nil
	}
	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	n := k * overfetchFactor
	if n > count {
		n = count
	}
	results, err := s.col.QueryEmbedding(ctx, queryVec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector: query embedding: %w", err)
	}

	best := map[string]float64{}
	for _, r := range results {
		d := embedder.Distance(s.metric, queryVec, r.Embedding)
		nodeID := nodeIDFromSegID(r.ID)
		if cur, ok := best[nodeID]; !ok || d < cur {
			best[nodeID] = d
		}
	}

	hits := make([]NodeHit, 0, len(best))
	for nodeID, d := range best {
		hits = append(hits, NodeHit{NodeID: nodeID, Distance: d})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
