package markov

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb))
}

func TestNextApproximatesTrainedFrequencies(t *testing.T) {
	c := New(1, newRand(1))
	// From 60: 62 x3, 64 x1, 67 x4.
	c.Train([]int{60, 62, 60, 62, 60, 62, 60, 64, 60, 67, 60, 67, 60, 67, 60, 67})
	want := map[int]float64{62: 3.0 / 8, 64: 1.0 / 8, 67: 4.0 / 8}
	if got := c.Distribution([]int{60}); !reflect.DeepEqual(got, want) {
		t.Fatalf("distribution = %v, want %v", got, want)
	}
	const n = 100000
	counts := map[int]int{}
	for i := 0; i < n; i++ {
		s, ok := c.Next([]int{60})
		if !ok {
			t.Fatalf("next returned !ok")
		}
		counts[s]++
	}
	for s, p := range want {
		got := float64(counts[s]) / n
		if math.Abs(got-p) > 0.02 {
			t.Errorf("state %d frequency = %.4f, want %.4f", s, got, p)
		}
	}
	if len(counts) != len(want) {
		t.Fatalf("unexpected successors drawn: %v", counts)
	}
}

func TestNextIsReproducible(t *testing.T) {
	train := []int{0, 1, 2, 0, 2, 1, 0, 1, 1, 2, 0}
	a := New(1, newRand(5))
	b := New(1, newRand(5))
	a.Train(train)
	b.Train(train)
	if ga, gb := a.Generate([]int{0}, 64), b.Generate([]int{0}, 64); !reflect.DeepEqual(ga, gb) {
		t.Fatalf("same seed produced different walks:\n%v\n%v", ga, gb)
	}
}

func TestUnknownContextSustains(t *testing.T) {
	c := New(1, newRand(1))
	c.Train([]int{60, 62, 64})
	for i := 0; i < 100; i++ {
		s, ok := c.Next([]int{99})
		if !ok || s != 99 {
			t.Fatalf("Next(99) = %d, %v; want 99, true", s, ok)
		}
	}
	// 64 was seen but has no outgoing transitions.
	if s, ok := c.Next([]int{64}); !ok || s != 64 {
		t.Fatalf("Next(64) = %d, %v; want 64, true", s, ok)
	}
}

func TestUnknownContextUniformFallback(t *testing.T) {
	c := New(1, newRand(2), WithFallback(Uniform))
	c.Train([]int{60, 62, 64})
	seen := map[int]int{}
	for i := 0; i < 3000; i++ {
		s, ok := c.Next([]int{99})
		if !ok {
			t.Fatalf("Next returned !ok")
		}
		seen[s]++
	}
	for _, s := range []int{60, 62, 64} {
		if seen[s] < 800 {
			t.Errorf("state %d drawn %d times, want roughly 1000", s, seen[s])
		}
	}
	if len(seen) != 3 {
		t.Fatalf("uniform fallback drew unknown states: %v", seen)
	}
}

func TestZeroWeightRowFallsBack(t *testing.T) {
	c := New(1, newRand(1))
	c.SetWeight([]int{1}, 2, 0)
	if s, ok := c.Next([]int{1}); !ok || s != 1 {
		t.Fatalf("Next(1) = %d, %v; want sustain 1", s, ok)
	}
	if d := c.Distribution([]int{1}); d != nil {
		t.Fatalf("distribution = %v, want nil", d)
	}
}

func TestEmptyChainEmptyContext(t *testing.T) {
	c := New(2, newRand(1))
	if _, ok := c.Next(nil); ok {
		t.Fatalf("expected !ok for empty chain and empty context")
	}
}

func TestSecondOrderUsesCompositeKey(t *testing.T) {
	c := New(2, newRand(1))
	c.Train([]int{1, 2, 3, 1, 2, 3, 4, 2, 5})
	// (1,2) is always followed by 3; (4,2) by 5.
	for i := 0; i < 50; i++ {
		if s, _ := c.Next([]int{9, 1, 2}); s != 3 {
			t.Fatalf("Next(1,2) = %d, want 3", s)
		}
		if s, _ := c.Next([]int{4, 2}); s != 5 {
			t.Fatalf("Next(4,2) = %d, want 5", s)
		}
	}
	// A context shorter than the order has no row and sustains.
	if s, ok := c.Next([]int{2}); !ok || s != 2 {
		t.Fatalf("Next(2) = %d, %v; want 2, true", s, ok)
	}
	if got := c.States(); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("states = %v", got)
	}
}

func TestGenerateLength(t *testing.T) {
	c := New(1, newRand(3))
	c.Train([]int{0, 1, 0, 2, 1, 2, 0})
	if got := c.Generate([]int{0}, 32); len(got) != 32 {
		t.Fatalf("generated %d states, want 32", len(got))
	}
}
