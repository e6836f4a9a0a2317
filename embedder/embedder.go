// Package embedder is the engine's seam onto spec.md §1's embedding-model
// collaborator: embed(texts) -> vectors of fixed dimension D, plus a choice
// of distance metric. The engine treats the model as opaque; this package
// also carries a deterministic default implementation so the repo runs
// standalone without a real model.
package embedder

import (
	"context"
	"math"
)

// Metric is the distance function the vector index was configured with
// (spec.md §1, §9 open question: ranking assumes smaller-is-better, which
// holds for L2 and cosine-as-distance but not raw inner product).
type Metric string

const (
	MetricL2     Metric = "l2"
	MetricIP     Metric = "ip"
	MetricCosine Metric = "cosine"
)

// Embedder embeds a batch of texts into fixed-dimension vectors in one
// call, per spec.md §4.5's "embed segment texts in a single batched call".
type Embedder interface {
	Dimension() int
	ModelID() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Distance returns the distance between a and b under metric, normalized so
// that smaller is always better: raw inner product is negated (spec.md §9).
func Distance(metric Metric, a, b []float32) float64 {
	switch metric {
	case MetricIP:
		return -dot(a, b)
	case MetricCosine:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot(a, b)/(na*nb)
	default: // MetricL2
		return l2(a, b)
	}
}

func dot(a, b []float32) float64 {
	var s float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}

func l2(a, b []float32) float64 {
	var s float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return math.Sqrt(s)
}
