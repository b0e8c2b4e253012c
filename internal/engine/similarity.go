package engine

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 ("unknown/neutral", not an error) when either vector is empty
// or the dimensions differ; mismatched or missing embeddings must not
// stop ranking, the other score components still apply.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
