// Package markov implements an order-N Markov transition model over integer
// states (MIDI notes, scale degrees, duration classes).
//
// A context of the last N states is a single composite key. Each key maps to
// successor counts kept in first-observed order; counts are normalised lazily
// when a successor is drawn. Contexts without a usable row fall back
// according to the chain's Fallback policy instead of failing.
package markov

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cbegin/ambigen/internal/weighted"
)

// Fallback selects what Next does for a context with no recorded
// transitions or only zero weights.
type Fallback int

const (
	// Sustain returns the last state of the context unchanged.
	Sustain Fallback = iota
	// Uniform draws uniformly over every state the chain has seen.
	Uniform
)

type row struct {
	successors []int
	weights    []float64
	index      map[int]int
}

func (r *row) add(state int, w float64) {
	i, ok := r.index[state]
	if !ok {
		i = len(r.successors)
		r.index[state] = i
		r.successors = append(r.successors, state)
		r.weights = append(r.weights, 0)
	}
	r.weights[i] += w
}

type Option func(*Chain)

// WithFallback sets the policy for unknown contexts. The default is Sustain.
func WithFallback(f Fallback) Option {
	return func(c *Chain) { c.fallback = f }
}

// Chain is an order-N transition model. It is not safe for concurrent use;
// each sequencer owns its chain.
type Chain struct {
	order    int
	rng      *rand.Rand
	fallback Fallback
	rows     map[string]*row
	states   []int
	known    map[int]struct{}
}

// New returns an empty chain. order < 1 is treated as 1.
func New(order int, rng *rand.Rand, opts ...Option) *Chain {
	if order < 1 {
		order = 1
	}
	c := &Chain{
		order: order,
		rng:   rng,
		rows:  make(map[string]*row),
		known: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Order() int { return c.order }

// States returns every state seen so far, in first-seen order.
func (c *Chain) States() []int {
	return append([]int(nil), c.states...)
}

func (c *Chain) remember(s int) {
	if _, ok := c.known[s]; !ok {
		c.known[s] = struct{}{}
		c.states = append(c.states, s)
	}
}

func key(context []int) string {
	var b strings.Builder
	for i, s := range context {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// Train counts every (context -> next) pair in seq.
func (c *Chain) Train(seq []int) {
	for _, s := range seq {
		c.remember(s)
	}
	for i := c.order; i < len(seq); i++ {
		c.add(seq[i-c.order:i], seq[i], 1)
	}
}

// SetWeight adds w to the transition context -> next. len(context) must equal
// the chain order; other lengths are ignored.
func (c *Chain) SetWeight(context []int, next int, w float64) {
	if len(context) != c.order || w < 0 {
		return
	}
	for _, s := range context {
		c.remember(s)
	}
	c.remember(next)
	c.add(context, next, w)
}

func (c *Chain) add(context []int, next int, w float64) {
	k := key(context)
	r, ok := c.rows[k]
	if !ok {
		r = &row{index: make(map[int]int)}
		c.rows[k] = r
	}
	r.add(next, w)
}

func (c *Chain) lookup(context []int) *row {
	if len(context) < c.order {
		return nil
	}
	return c.rows[key(context[len(context)-c.order:])]
}

// Next draws the successor of context, using its last Order() states. ok is
// false only when context is empty and the chain knows no states.
func (c *Chain) Next(context []int) (next int, ok bool) {
	if r := c.lookup(context); r != nil {
		if total, err := weighted.Total(r.weights); err == nil && total > 0 {
			return r.successors[weighted.PickTotal(c.rng, r.weights, total)], true
		}
	}
	return c.fallbackFor(context)
}

func (c *Chain) fallbackFor(context []int) (int, bool) {
	if c.fallback == Sustain && len(context) > 0 {
		return context[len(context)-1], true
	}
	if len(c.states) == 0 {
		if len(context) > 0 {
			return context[len(context)-1], true
		}
		return 0, false
	}
	return c.states[c.rng.IntN(len(c.states))], true
}

// Distribution returns the normalised successor probabilities for context,
// or nil when the context has no usable row.
func (c *Chain) Distribution(context []int) map[int]float64 {
	r := c.lookup(context)
	if r == nil {
		return nil
	}
	total, err := weighted.Total(r.weights)
	if err != nil || total == 0 {
		return nil
	}
	out := make(map[int]float64, len(r.successors))
	for i, s := range r.successors {
		if r.weights[i] > 0 {
			out[s] = r.weights[i] / total
		}
	}
	return out
}

// Generate walks the chain from seed for n steps and returns the produced
// states, excluding the seed.
func (c *Chain) Generate(seed []int, n int) []int {
	context := append([]int(nil), seed...)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		s, ok := c.Next(context)
		if !ok {
			break
		}
		out = append(out, s)
		context = append(context, s)
		if len(context) > c.order {
			context = context[len(context)-c.order:]
		}
	}
	return out
}
