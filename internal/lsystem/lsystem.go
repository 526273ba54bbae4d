// Package lsystem rewrites symbol strings with L-system rules and interprets
// the result as overlapping musical lines.
package lsystem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnbalanced is returned for a ']' with no matching '['.
var ErrUnbalanced = errors.New("lsystem: unbalanced branch")

// Generate applies rules to axiom iterations times. Every pass rewrites all
// symbols at once; symbols without a rule are copied unchanged.
func Generate(axiom string, rules map[rune]string, iterations int) string {
	cur := axiom
	for i := 0; i < iterations; i++ {
		if len(rules) == 0 {
			break
		}
		var b strings.Builder
		b.Grow(len(cur) * 2)
		for _, r := range cur {
			if rep, ok := rules[r]; ok {
				b.WriteString(rep)
			} else {
				b.WriteRune(r)
			}
		}
		cur = b.String()
	}
	return cur
}

// Note is one sounding symbol. Degree is a scale degree relative to the
// interpreter's start; Time and Duration are in beats.
type Note struct {
	Degree   int
	Time     float64
	Duration float64
	Depth    int // branch nesting level the note was emitted at
}

type turtle struct {
	degree   int
	time     float64
	duration float64
}

// Interpreter turns symbols into notes:
//
//	F  sound the current degree, then advance time by the duration
//	f  advance time silently
//	+  raise the degree by Step
//	-  lower the degree by Step
//	*  double the duration
//	/  halve the duration
//	[  push (degree, time, duration)
//	]  pop, returning to the pushed state
//
// Other symbols are ignored. The stack grows without a fixed limit.
type Interpreter struct {
	Step     int
	Duration float64
}

func (in Interpreter) Interpret(symbols string) ([]Note, error) {
	step := in.Step
	if step == 0 {
		step = 1
	}
	dur := in.Duration
	if dur <= 0 {
		dur = 1
	}
	cur := turtle{duration: dur}
	var stack []turtle
	var notes []Note
	for pos, r := range symbols {
		switch r {
		case 'F':
			notes = append(notes, Note{Degree: cur.degree, Time: cur.time, Duration: cur.duration, Depth: len(stack)})
			cur.time += cur.duration
		case 'f':
			cur.time += cur.duration
		case '+':
			cur.degree += step
		case '-':
			cur.degree -= step
		case '*':
			cur.duration *= 2
		case '/':
			cur.duration /= 2
		case '[':
			stack = append(stack, cur)
		case ']':
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w at offset %d", ErrUnbalanced, pos)
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: %d unclosed", ErrUnbalanced, len(stack))
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Time < notes[j].Time })
	return notes, nil
}
