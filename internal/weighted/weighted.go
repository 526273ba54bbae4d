// Package weighted draws weighted-random choices by cumulative-weight
// sampling: one uniform draw r in [0, total) is compared against the running
// sum of weights, and the first candidate whose running sum exceeds r wins.
// Given the same *rand.Rand state the result is always the same.
package weighted

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrNegativeWeight is returned when a weight is negative, NaN or infinite.
var ErrNegativeWeight = errors.New("weighted: weight must be finite and non-negative")

// DegenerateWeightError reports a draw whose weights sum to zero. It points at
// a caller bug: a weighting function that excludes every candidate.
type DegenerateWeightError struct {
	Candidates int
}

func (e *DegenerateWeightError) Error() string {
	return fmt.Sprintf("weighted: all %d candidate weights are zero", e.Candidates)
}

// Pick returns the index drawn from weights.
func Pick(rng *rand.Rand, weights []float64) (int, error) {
	total, err := Total(weights)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, &DegenerateWeightError{Candidates: len(weights)}
	}
	return pickTotal(rng, weights, total), nil
}

// Total sums weights, rejecting negative or non-finite entries.
func Total(weights []float64) (float64, error) {
	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("%w: index %d = %v", ErrNegativeWeight, i, w)
		}
		total += w
	}
	return total, nil
}

// pickTotal assumes total is the positive sum of weights.
func pickTotal(rng *rand.Rand, weights []float64, total float64) int {
	r := rng.Float64() * total
	var cum float64
	last := 0
	for i, w := range weights {
		if w == 0 {
			continue
		}
		cum += w
		last = i
		if cum > r {
			return i
		}
	}
	// Rounding can leave r just above the final running sum.
	return last
}

// PickTotal is Pick for callers that already validated weights and know the
// total is positive.
func PickTotal(rng *rand.Rand, weights []float64, total float64) int {
	return pickTotal(rng, weights, total)
}

// Select evaluates weightFn for every candidate and draws one of them.
func Select[T any](rng *rand.Rand, candidates []T, weightFn func(T) float64) (T, error) {
	var zero T
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = weightFn(c)
	}
	i, err := Pick(rng, weights)
	if err != nil {
		return zero, err
	}
	return candidates[i], nil
}
