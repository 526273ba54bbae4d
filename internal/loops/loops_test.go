package loops

import (
	"errors"
	"testing"
)

func primeLoops(t *testing.T) *Generator {
	t.Helper()
	g, err := New(
		Loop{Name: "17", Period: 17},
		Loop{Name: "19", Period: 19},
		Loop{Name: "23", Period: 23},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return g
}

func TestPrimePeriodsFirstSixOnsets(t *testing.T) {
	g := primeLoops(t)
	want := []struct {
		name string
		at   float64
	}{
		{"17", 0}, {"19", 0}, {"23", 0},
		{"17", 17}, {"19", 19}, {"23", 23},
	}
	for i, w := range want {
		o, ok := g.Next()
		if !ok {
			t.Fatalf("onset %d: !ok", i)
		}
		if o.Name != w.name || o.Time != w.at {
			t.Fatalf("onset %d = %s@%v, want %s@%v", i, o.Name, o.Time, w.name, w.at)
		}
	}
}

func TestNextBatchGroupsTies(t *testing.T) {
	g := primeLoops(t)
	batch := g.NextBatch()
	if len(batch) != 3 {
		t.Fatalf("first batch has %d onsets, want 3", len(batch))
	}
	for _, o := range batch {
		if o.Time != 0 {
			t.Fatalf("first batch onset at %v, want 0", o.Time)
		}
	}
	if b := g.NextBatch(); len(b) != 1 || b[0].Name != "17" || b[0].Time != 17 {
		t.Fatalf("second batch = %+v", b)
	}
}

func TestOnsetsNeverGoBackwards(t *testing.T) {
	g, err := New(
		Loop{Name: "a", Period: 2.3, Phase: 0.5},
		Loop{Name: "b", Period: 3.1},
		Loop{Name: "c", Period: 1.7, Phase: -4},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	prev := -1.0
	for i := 0; i < 10000; i++ {
		o, _ := g.Next()
		if o.Time < prev {
			t.Fatalf("onset %d at %v precedes %v", i, o.Time, prev)
		}
		if o.Time < 0 {
			t.Fatalf("onset %d at negative time %v", i, o.Time)
		}
		prev = o.Time
	}
}

func TestNegativePhaseStartsAtFirstNonNegativeOnset(t *testing.T) {
	g, err := New(Loop{Name: "x", Period: 3, Phase: -1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if o, _ := g.Next(); o.Time != 2 || o.Count != 1 {
		t.Fatalf("first onset = %+v, want time 2 count 1", o)
	}
}

func TestNoDriftOverLongRuns(t *testing.T) {
	g, err := New(Loop{Name: "tenth", Period: 0.1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var o Onset
	for i := 0; i <= 1000000; i++ {
		o, _ = g.Next()
	}
	if want := float64(1000000) * 0.1; o.Time != want {
		t.Fatalf("onset 1e6 at %v, want %v", o.Time, want)
	}
}

func TestInvalidPeriod(t *testing.T) {
	for _, p := range []float64{0, -1} {
		if _, err := New(Loop{Name: "bad", Period: p}); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("period %v: err = %v, want ErrInvalidPeriod", p, err)
		}
	}
}

func TestEmptyGenerator(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := g.Next(); ok {
		t.Fatalf("expected !ok")
	}
	if b := g.NextBatch(); b != nil {
		t.Fatalf("batch = %v, want nil", b)
	}
}
