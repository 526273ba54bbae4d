// Package automaton implements one-dimensional elementary cellular automata.
//
// The next value of a cell depends on itself and its two neighbours; the
// Wolfram rule number maps each of the eight neighbourhoods to 0 or 1. The
// row is a ring: the first and last cells are neighbours.
package automaton

import (
	"errors"
	"strings"
)

// Elementary owns its cell row between calls. Callers only ever receive copies.
type Elementary struct {
	rule       uint8
	cells      []bool
	generation int
}

// NewElementary returns an all-dead row of size cells under rule.
func NewElementary(size int, rule uint8) (*Elementary, error) {
	if size < 1 {
		return nil, errors.New("automaton: size must be positive")
	}
	return &Elementary{rule: rule, cells: make([]bool, size)}, nil
}

func (a *Elementary) Rule() uint8     { return a.rule }
func (a *Elementary) Size() int       { return len(a.cells) }
func (a *Elementary) Generation() int { return a.generation }

// SeedCenter clears the row and sets the single cell at Size()/2.
func (a *Elementary) SeedCenter() {
	clear(a.cells)
	a.cells[len(a.cells)/2] = true
	a.generation = 0
}

// Set sets cell i; out-of-range indices are ignored.
func (a *Elementary) Set(i int, alive bool) {
	if i >= 0 && i < len(a.cells) {
		a.cells[i] = alive
	}
}

// State returns a copy of the current row.
func (a *Elementary) State() []bool {
	return append([]bool(nil), a.cells...)
}

// Next computes the successor of row under rule without touching row.
func Next(row []bool, rule uint8) []bool {
	n := len(row)
	out := make([]bool, n)
	for i := range row {
		var idx uint8
		if row[(i-1+n)%n] {
			idx |= 4
		}
		if row[i] {
			idx |= 2
		}
		if row[(i+1)%n] {
			idx |= 1
		}
		out[i] = rule>>idx&1 == 1
	}
	return out
}

// Step advances one generation and returns a snapshot of the new row.
func (a *Elementary) Step() []bool {
	a.cells = Next(a.cells, a.rule)
	a.generation++
	return a.State()
}

// Active returns the indices of live cells in the current row.
func (a *Elementary) Active() []int {
	var out []int
	for i, c := range a.cells {
		if c {
			out = append(out, i)
		}
	}
	return out
}

func (a *Elementary) String() string { return Format(a.cells) }

// Format renders a row with '#' for live cells and '.' for dead ones.
func Format(row []bool) string {
	var b strings.Builder
	b.Grow(len(row))
	for _, c := range row {
		if c {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
