package deepface

import (
	"math"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// NormalizeEmbedding normalizes an embedding vector to unit length.
// A zero vector is returned unchanged.
func NormalizeEmbedding(embedding []float64) domain.Descriptor {
	var norm float64
	for _, v := range embedding {
		norm += v * v
	}

	if norm == 0 {
		out := make(domain.Descriptor, len(embedding))
		copy(out, embedding)
		return out
	}

	norm = math.Sqrt(norm)
	normalized := make(domain.Descriptor, len(embedding))
	for i, v := range embedding {
		normalized[i] = v / norm
	}

	return normalized
}
