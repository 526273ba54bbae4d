// Package loops runs independent periodic loops and interleaves their onsets.
//
// Loop i fires at Phase_i + k*Period_i for k = 0, 1, 2, ... Choosing periods
// whose ratios are irrational, or distinct primes, makes the combined pattern
// of onsets take a very long time to repeat. The generator does not check the
// periods; it only merges the loops correctly. Onset times are recomputed from
// the repetition counter on every step, so long runs do not accumulate
// floating-point drift.
package loops

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPeriod is returned for a loop whose period is not positive and finite.
var ErrInvalidPeriod = errors.New("loops: period must be positive")

// tieEpsilon is the distance in seconds under which two onsets count as simultaneous.
const tieEpsilon = 1e-9

type Loop struct {
	Name    string
	Payload any
	Period  float64
	Phase   float64
}

// Onset is one firing of a loop.
type Onset struct {
	Loop    int // index of the loop in construction order
	Name    string
	Payload any
	Time    float64
	Count   int64 // repetition number of this loop
}

type Generator struct {
	loops  []Loop
	counts []int64
}

// New validates the loops and positions each one at its first onset at or
// after time zero.
func New(loops ...Loop) (*Generator, error) {
	g := &Generator{
		loops:  append([]Loop(nil), loops...),
		counts: make([]int64, len(loops)),
	}
	for i, l := range loops {
		if !(l.Period > 0) || math.IsInf(l.Period, 0) {
			return nil, fmt.Errorf("%w: loop %d (%s) period %v", ErrInvalidPeriod, i, l.Name, l.Period)
		}
		if math.IsNaN(l.Phase) || math.IsInf(l.Phase, 0) {
			return nil, fmt.Errorf("loops: loop %d (%s) phase %v is not finite", i, l.Name, l.Phase)
		}
		if l.Phase < 0 {
			g.counts[i] = int64(math.Ceil(-l.Phase/l.Period - tieEpsilon))
		}
	}
	return g, nil
}

// Len returns the number of loops.
func (g *Generator) Len() int { return len(g.loops) }

func (g *Generator) at(i int) float64 {
	l := g.loops[i]
	return l.Phase + float64(g.counts[i])*l.Period
}

func (g *Generator) earliest() int {
	best := -1
	var bestT float64
	for i := range g.loops {
		t := g.at(i)
		if best < 0 || t < bestT-tieEpsilon {
			best, bestT = i, t
		}
	}
	return best
}

func (g *Generator) fire(i int) Onset {
	l := g.loops[i]
	o := Onset{Loop: i, Name: l.Name, Payload: l.Payload, Time: g.at(i), Count: g.counts[i]}
	g.counts[i]++
	return o
}

// Next returns the earliest pending onset. Simultaneous onsets come out in
// loop order, all of them before any later onset. ok is false when the
// generator has no loops.
func (g *Generator) Next() (Onset, bool) {
	i := g.earliest()
	if i < 0 {
		return Onset{}, false
	}
	return g.fire(i), true
}

// NextBatch returns every onset that falls on the earliest pending instant.
func (g *Generator) NextBatch() []Onset {
	i := g.earliest()
	if i < 0 {
		return nil
	}
	t := g.at(i)
	var out []Onset
	for j := range g.loops {
		if math.Abs(g.at(j)-t) <= tieEpsilon {
			out = append(out, g.fire(j))
		}
	}
	return out
}

// Peek returns the time of the next onset without consuming it.
func (g *Generator) Peek() (float64, bool) {
	i := g.earliest()
	if i < 0 {
		return 0, false
	}
	return g.at(i), true
}
