// Package embed provides the EmbeddingProvider the match service depends
// on. No vector-embedding model library exists anywhere in the example
// pack (the original's fastembed dependency has no Go equivalent in the
// corpus), so this is a from-scratch reference implementation rather than
// an adaptation of teacher code — see DESIGN.md for that call.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Hashing is a deterministic, dependency-free EmbeddingProvider: it hashes
// each token into one of Dimension buckets (the hashing trick) and
// L2-normalizes the result. Same text, same model id, same vector, always
// — exactly the property the service's embedding cache and result cache
// keys depend on.
type Hashing struct {
	Dimension int
	ModelID   string
}

// NewHashing builds a Hashing provider with the given vector width. A
// model id is recorded for collection metadata but does not otherwise
// affect the computation.
func NewHashing(dimension int, modelID string) *Hashing {
	if dimension <= 0 {
		dimension = 128
	}
	return &Hashing{Dimension: dimension, ModelID: modelID}
}

// Embed tokenizes text on whitespace, hashes each token into a bucket with
// FNV-1a, and accumulates a signed count so anti-correlated tokens don't
// silently cancel. The result is L2-normalized; an all-whitespace input
// yields the zero vector.
func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, h.Dimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		sum := fnv.New32a()
		_, _ = sum.Write([]byte(tok))
		bucket := sum.Sum32() % uint32(h.Dimension)
		sign := 1.0
		if (sum.Sum32()/uint32(h.Dimension))%2 == 1 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.Dimension)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}
