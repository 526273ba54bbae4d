package lsystem

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateEmptyRulesIsIdentity(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		if got := Generate("F", map[rune]string{}, n); got != "F" {
			t.Fatalf("Generate(F, {}, %d) = %q, want F", n, got)
		}
	}
	if got := Generate("F", nil, 3); got != "F" {
		t.Fatalf("nil rules: got %q", got)
	}
}

func TestGenerateParallelRewrite(t *testing.T) {
	// Algae: A -> AB, B -> A.
	rules := map[rune]string{'A': "AB", 'B': "A"}
	want := []string{"A", "AB", "ABA", "ABAAB", "ABAABABA"}
	for n, w := range want {
		if got := Generate("A", rules, n); got != w {
			t.Fatalf("iteration %d = %q, want %q", n, got, w)
		}
	}
}

func TestGenerateUnruledSymbolsPassThrough(t *testing.T) {
	got := Generate("F+[F]", map[rune]string{'F': "FF"}, 2)
	if got != "FFFF+[FFFF]" {
		t.Fatalf("got %q", got)
	}
}

func TestInterpretBranchesOverlap(t *testing.T) {
	notes, err := Interpreter{Step: 1, Duration: 1}.Interpret("F[+F+F]-F")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	want := []Note{
		{Degree: 0, Time: 0, Duration: 1, Depth: 0},
		{Degree: 1, Time: 1, Duration: 1, Depth: 1},
		{Degree: -1, Time: 1, Duration: 1, Depth: 0},
		{Degree: 2, Time: 2, Duration: 1, Depth: 1},
	}
	if len(notes) != len(want) {
		t.Fatalf("got %d notes, want %d: %+v", len(notes), len(want), notes)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Fatalf("note %d = %+v, want %+v", i, notes[i], want[i])
		}
	}
}

func TestInterpretDurationAndRest(t *testing.T) {
	notes, err := Interpreter{}.Interpret("*F/fF")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if len(notes) != 2 || notes[0].Duration != 2 || notes[1].Time != 3 || notes[1].Duration != 1 {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestInterpretDeepNesting(t *testing.T) {
	const depth = 10000
	sym := strings.Repeat("[+", depth) + "F" + strings.Repeat("]", depth)
	notes, err := Interpreter{Step: 1, Duration: 1}.Interpret(sym)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if len(notes) != 1 || notes[0].Degree != depth || notes[0].Depth != depth {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestInterpretUnbalanced(t *testing.T) {
	for _, s := range []string{"F]", "[F", "]["} {
		if _, err := (Interpreter{}).Interpret(s); !errors.Is(err, ErrUnbalanced) {
			t.Errorf("Interpret(%q) err = %v, want ErrUnbalanced", s, err)
		}
	}
}
