package memory

import "math"

// Score normalization primitives shared by the rankers and the
// combiner. All three are total over any non-empty slice and return an
// empty slice for empty input.

// Softmax maps raw ranks to scores summing to one. Inputs are shifted
// by their maximum before exponentiation so unbounded ranks stay
// finite.
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// LinearMinMax rescales scores to [0,1] so the maximum maps to exactly
// 1 and the minimum to exactly 0. When all inputs are equal the spread
// is zero; the output is all zeros in that case.
func LinearMinMax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	spread := maxScore - minScore
	if spread == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - minScore) / spread
	}
	return out
}

// SumNormalize divides each score by the total. Inputs must be
// non-negative; an all-zero slice is returned unchanged.
func SumNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	out := make([]float64, len(scores))
	if sum == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = s / sum
	}
	return out
}
