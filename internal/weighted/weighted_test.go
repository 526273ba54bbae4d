package weighted

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSelectAllZeroIsDegenerate(t *testing.T) {
	_, err := Select(newRand(1), []string{"a", "b", "c"}, func(string) float64 { return 0 })
	var derr *DegenerateWeightError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DegenerateWeightError", err)
	}
	if derr.Candidates != 3 {
		t.Fatalf("candidates = %d, want 3", derr.Candidates)
	}
}

func TestPickEmptyIsDegenerate(t *testing.T) {
	var derr *DegenerateWeightError
	if _, err := Pick(newRand(1), nil); !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DegenerateWeightError", err)
	}
}

func TestPickRejectsNegativeAndNaN(t *testing.T) {
	for _, w := range [][]float64{{1, -1}, {math.NaN()}, {math.Inf(1)}} {
		if _, err := Pick(newRand(1), w); !errors.Is(err, ErrNegativeWeight) {
			t.Errorf("Pick(%v) err = %v, want ErrNegativeWeight", w, err)
		}
	}
}

func TestPickNeverReturnsZeroWeight(t *testing.T) {
	rng := newRand(7)
	weights := []float64{0, 3, 0, 1, 0}
	for i := 0; i < 10000; i++ {
		idx, err := Pick(rng, weights)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if weights[idx] == 0 {
			t.Fatalf("picked zero-weight index %d", idx)
		}
	}
}

func TestPickIsReproducible(t *testing.T) {
	weights := []float64{1, 2, 3, 4}
	a, b := newRand(42), newRand(42)
	for i := 0; i < 100; i++ {
		x, _ := Pick(a, weights)
		y, _ := Pick(b, weights)
		if x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestPickFrequencies(t *testing.T) {
	rng := newRand(3)
	weights := []float64{1, 2, 7}
	counts := make([]int, len(weights))
	const n = 100000
	for i := 0; i < n; i++ {
		idx, err := Pick(rng, weights)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[idx]++
	}
	for i, w := range weights {
		got := float64(counts[i]) / n
		want := w / 10
		if math.Abs(got-want) > 0.02 {
			t.Errorf("index %d frequency = %.3f, want %.3f", i, got, want)
		}
	}
}

func TestWalkRespectsMaxStep(t *testing.T) {
	scale := []int{60, 62, 64, 65, 67, 69, 71, 72, 74, 76}
	w, err := NewWalk(newRand(9), scale, 4, Stepwise(2))
	if err != nil {
		t.Fatalf("new walk: %v", err)
	}
	prev := w.Pos()
	for i := 0; i < 1000; i++ {
		if _, err := w.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
		d := w.Pos() - prev
		if d < -2 || d > 2 {
			t.Fatalf("step %d moved %d positions", i, d)
		}
		prev = w.Pos()
	}
}

func TestWalkHarmonicBiasFavoursRoot(t *testing.T) {
	scale := []int{60, 62, 64, 65, 67, 69, 71}
	w, err := NewWalk(newRand(11), scale, 0, Harmonic(7, 4, 8, 4))
	if err != nil {
		t.Fatalf("new walk: %v", err)
	}
	counts := map[int]int{}
	for i := 0; i < 20000; i++ {
		n, err := w.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		counts[n]++
	}
	if counts[60] <= counts[67] || counts[67] <= counts[62] {
		t.Fatalf("expected root > fifth > other, got %v", counts)
	}
}

func TestWalkDegenerateBias(t *testing.T) {
	w, err := NewWalk(newRand(1), []int{1, 2, 3}, 0, Combine(Stepwise(1), func(int, int) float64 { return 0 }))
	if err != nil {
		t.Fatalf("new walk: %v", err)
	}
	var derr *DegenerateWeightError
	if _, err := w.Next(); !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DegenerateWeightError", err)
	}
}

func TestNewWalkValidates(t *testing.T) {
	if _, err := NewWalk[int](newRand(1), nil, 0, nil); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
	if _, err := NewWalk(newRand(1), []int{1}, 3, nil); err == nil {
		t.Fatalf("expected error for start out of range")
	}
}
