package domain

import "math"

// CosineSimilarity computes the cosine of the angle between two equal-length
// vectors, in [-1, 1]. Returns ErrDimensionMismatch when the lengths differ
// and 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, NewDimensionError(len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// ClampSimilarity floors negative similarity to 0 and caps at 1.
// Negative cosine similarity is mathematically possible but not meaningful
// for voice embeddings, so it is never surfaced as a negative confidence.
func ClampSimilarity(sim float64) float64 {
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// ConfidencePercent converts a similarity to an integer confidence 0-100.
func ConfidencePercent(sim float64) int {
	return int(math.Round(ClampSimilarity(sim) * 100))
}
