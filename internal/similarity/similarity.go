// Package similarity compares face embeddings.
package similarity

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// DefaultThreshold is the minimum similarity treated as the same identity.
const DefaultThreshold = 0.91

// CosineSimilarity returns one minus the cosine distance between a and b,
// in [-1, 1]. A zero vector has no direction and scores 0.
// Vectors of different length fail with domain.ErrDimensionMismatch.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("len %d vs %d", len(a), len(b)))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp floating point drift
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity, nil
}

// IsMatch reports whether score reaches threshold.
func IsMatch(score, threshold float64) bool {
	return score >= threshold
}

// ValidThreshold reports whether t is a usable cosine similarity threshold.
func ValidThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= -1 && t <= 1
}
