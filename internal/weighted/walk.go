package weighted

import (
	"errors"
	"math/rand/v2"
)

// Bias weights a move from candidate index from to candidate index to.
type Bias func(from, to int) float64

// Stepwise favours small moves: weight 1/(1+|to-from|) up to maxStep, zero beyond.
func Stepwise(maxStep int) Bias {
	return func(from, to int) float64 {
		d := to - from
		if d < 0 {
			d = -d
		}
		if d > maxStep {
			return 0
		}
		return 1 / float64(1+d)
	}
}

// Harmonic weights targets by scale degree: index%period == 0 gets root,
// index%period == fifthDegree gets fifth, everything else 1.
func Harmonic(period, fifthDegree int, root, fifth float64) Bias {
	return func(_, to int) float64 {
		if period <= 0 {
			return 1
		}
		switch to % period {
		case 0:
			return root
		case fifthDegree:
			return fifth
		}
		return 1
	}
}

// Combine multiplies biases.
func Combine(biases ...Bias) Bias {
	return func(from, to int) float64 {
		w := 1.0
		for _, b := range biases {
			w *= b(from, to)
		}
		return w
	}
}

// Walk is a constraint-gated random walk over a fixed candidate set.
type Walk[T any] struct {
	rng        *rand.Rand
	candidates []T
	bias       Bias
	pos        int
	weights    []float64
}

func NewWalk[T any](rng *rand.Rand, candidates []T, start int, bias Bias) (*Walk[T], error) {
	if len(candidates) == 0 {
		return nil, errors.New("weighted: walk needs at least one candidate")
	}
	if start < 0 || start >= len(candidates) {
		return nil, errors.New("weighted: walk start out of range")
	}
	if bias == nil {
		bias = func(int, int) float64 { return 1 }
	}
	return &Walk[T]{
		rng:        rng,
		candidates: candidates,
		bias:       bias,
		pos:        start,
		weights:    make([]float64, len(candidates)),
	}, nil
}

// Next moves to a new position and returns its candidate.
func (w *Walk[T]) Next() (T, error) {
	var zero T
	for i := range w.candidates {
		w.weights[i] = w.bias(w.pos, i)
	}
	i, err := Pick(w.rng, w.weights)
	if err != nil {
		return zero, err
	}
	w.pos = i
	return w.candidates[i], nil
}

// Pos returns the current candidate index.
func (w *Walk[T]) Pos() int { return w.pos }
