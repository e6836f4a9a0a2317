package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"docindex/embedder"
	"docindex/logging"
)

const collectionName = "segments"

// Store is the vector index backed by a persistent chromem-go database
// (vector_db/ on disk), grounded on the teacher's doclib/embeddings.go
// brute-force cosine search, generalized to chromem-go's embedded ANN
// collection and the spec's configurable distance metric.
type Store struct {
	db     *chromem.DB
	col    *chromem.Collection
	metric embedder.Metric
	emb    embedder.Embedder
	log    interface {
		Debug(msg string, args ...interface{})
		Error(msg string, args ...interface{})
	}
}

// Open opens or creates the persistent vector database rooted at dir
// (typically vector_db/).
func Open(dir string, metric embedder.Metric, emb embedder.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("vector: open %q: %w", dir, err)
	}
	// Embeddings are always supplied directly by the caller (Save), so this
	// collection never calls its embedding function itself.
	col, err := db.GetOrCreateCollection(collectionName, nil, func(context.Context, string) ([]float32, error) {
		return nil, fmt.Errorf("vector: collection embedding function must not be invoked; embeddings are precomputed")
	})
	if err != nil {
		return nil, fmt.Errorf("vector: open collection: %w", err)
	}
	return &Store{db: db, col: col, metric: metric, emb: emb, log: logging.Named("vector")}, nil
}

func segID(nodeID string, segIdx int) string {
	return nodeID + "/" + strconv.Itoa(segIdx)
}

// Save embeds every segment's text in a single batched call and inserts
// one document per segment, id "{node_id}/{segment_index}", metadata
// merged with seg_start/seg_end on every segment and seg_len on segment 0
// (spec.md §4.5).
func (s *Store) Save(ctx context.Context, nodeID string, segments []Segment, metadata map[string]string) error {
	if len(segments) == 0 {
		return nil
	}
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vecs, err := s.emb.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("vector: embed segments of %s: %w", nodeID, err)
	}

	docs := make([]chromem.Document, len(segments))
	for i, seg := range segments {
		meta := cloneMeta(metadata)
		meta["seg_start"] = strconv.Itoa(seg.Start)
		meta["seg_end"] = strconv.Itoa(seg.End)
		if i == 0 {
			meta["seg_len"] = strconv.Itoa(len(segments))
		}
		docs[i] = chromem.Document{
			ID:        segID(nodeID, i),
			Metadata:  meta,
			Embedding: vecs[i],
			Content:   seg.Text,
		}
	}
	return s.col.AddDocuments(ctx, docs, 1)
}

// Remove looks up seg_len from segment 0's metadata and deletes all of the
// node's segment ids in batches of <=45, bounding per-request size
// (spec.md §4.5).
func (s *Store) Remove(ctx context.Context, nodeID string) error {
	doc, err := s.col.GetByID(ctx, segID(nodeID, 0))
	if err != nil {
		return nil // no segment 0 means nothing to remove
	}
	segLenStr, ok := doc.Metadata["seg_len"]
	if !ok {
		return fmt.Errorf("vector: segment 0 of %s missing seg_len", nodeID)
	}
	segLen, err := strconv.Atoi(segLenStr)
	if err != nil {
		return fmt.Errorf("vector: malformed seg_len for %s: %w", nodeID, err)
	}

	ids := make([]string, segLen)
	for i := 0; i < segLen; i++ {
		ids[i] = segID(nodeID, i)
	}
	const batchSize = 45
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.col.Delete(ctx, nil, nil, ids[i:end]...); err != nil {
			return fmt.Errorf("vector: delete batch for %s: %w", nodeID, err)
		}
	}
	return nil
}

func cloneMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+3)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func nodeIDFromSegID(id string) string {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return id
	}
	return id[:i]
}
