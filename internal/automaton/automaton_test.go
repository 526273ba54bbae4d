package automaton

import "testing"

func TestRule30Golden(t *testing.T) {
	a, err := NewElementary(8, 30)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.SeedCenter()
	if got := a.String(); got != "....#..." {
		t.Fatalf("seed = %q", got)
	}
	want := []string{
		"...###..",
		"..##..#.",
		".##.####",
		".#..#...",
		"######..",
	}
	for i, w := range want {
		if got := Format(a.Step()); got != w {
			t.Fatalf("step %d = %q, want %q", i+1, got, w)
		}
	}
	if a.Generation() != 5 {
		t.Fatalf("generation = %d, want 5", a.Generation())
	}
}

func TestStepReturnsSnapshot(t *testing.T) {
	a, _ := NewElementary(8, 30)
	a.SeedCenter()
	prev := a.State()
	snap := a.Step()
	snap[0] = !snap[0]
	prev[4] = false
	if got := a.String(); got != "...###.." {
		t.Fatalf("mutating snapshots changed the automaton: %q", got)
	}
}

func TestNextDoesNotMutateInput(t *testing.T) {
	row := []bool{false, true, false}
	Next(row, 30)
	if row[0] || !row[1] || row[2] {
		t.Fatalf("input mutated: %v", row)
	}
}

func TestRingBoundary(t *testing.T) {
	a, _ := NewElementary(5, 2) // rule 2: 001 -> 1, a cell copies its right neighbour leftward
	a.Set(0, true)
	if got := Format(a.Step()); got != "....#" {
		t.Fatalf("wraparound step = %q, want %q", got, "....#")
	}
}

func TestActive(t *testing.T) {
	a, _ := NewElementary(8, 30)
	a.SeedCenter()
	a.Step()
	got := a.Active()
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Fatalf("active = %v, want [3 4 5]", got)
	}
}

func TestNewRejectsEmptyRow(t *testing.T) {
	if _, err := NewElementary(0, 30); err == nil {
		t.Fatalf("expected error")
	}
}
