package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"docindex/segment"
)

// HashingEmbedder is the default, model-free Embedder: it shingles the
// input into tokens (segment.Tokenize, the same tokenizer the lexical
// index uses) and projects each token deterministically into a fixed
// dimension via a seeded hash, summing and L2-normalizing the result. It
// is deterministic per model id (the model id seeds the hash), has no
// network dependency, and is good enough to exercise the vector index's
// ranking and ANN paths in tests and in a from-scratch deployment before a
// real model is wired in.
type HashingEmbedder struct {
	dim     int
	modelID string
}

// NewHashingEmbedder returns a HashingEmbedder producing `dim`-dimensional
// vectors, seeded by `modelID` so distinct model ids never collide.
func NewHashingEmbedder(modelID string, dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &HashingEmbedder{dim: dim, modelID: modelID}
}

func (e *HashingEmbedder) Dimension() int  { return e.dim }
func (e *HashingEmbedder) ModelID() string { return e.modelID }

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float64, e.dim)
	for _, tok := range segment.Tokenize(text) {
		h := sha256.Sum256([]byte(e.modelID + "\x00" + tok))
		for i := 0; i < e.dim; i++ {
			byteIdx := (i * 4) % len(h)
			bits := binary.BigEndian.Uint32(wrap4(h[:], byteIdx))
			// Map to [-1, 1).
			sign := 1.0
			if bits&1 == 1 {
				sign = -1.0
			}
			vec[i] += sign * float64(bits%1000) / 1000.0
		}
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, e.dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// wrap4 returns 4 bytes starting at idx, wrapping around h.
func wrap4(h []byte, idx int) []byte {
	var b [4]byte
	for i := 0; i < 4; i++ {
		b[i] = h[(idx+i)%len(h)]
	}
	return b[:]
}
