package rageval

import "math"

type Vector []float32

// CosineSimilarity returns 0 for empty vectors, vectors of different length or zero vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MostSimilar returns the index of the candidate closest to v, skipping the index skip.
// It returns -1 when there is no other candidate.
func MostSimilar(v Vector, candidates []Vector, skip int) int {
	best, bestScore := -1, math.Inf(-1)
	for i, candidate := range candidates {
		if i == skip {
			continue
		}
		if score := CosineSimilarity(v, candidate); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
