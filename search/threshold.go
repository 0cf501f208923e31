package search

import "math"

// defaultMinScore is the floor below which results are never returned,
// whatever the score distribution looks like.
const defaultMinScore = 0.15

// adaptiveCutoff returns the relevance cutoff for a set of candidate
// scores: one standard deviation below the mean, clamped to the floor.
// An empty candidate set returns the floor.
func adaptiveCutoff(scores []float32, floor float32) float32 {
	if len(scores) == 0 {
		return floor
	}

	var sum float64
	for _, s := range scores {
		sum += float64(s)
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(scores))

	cutoff := float32(mean - math.Sqrt(variance))
	if cutoff < floor {
		cutoff = floor
	}
	return cutoff
}
