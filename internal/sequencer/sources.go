package sequencer

import (
	"errors"
	"fmt"

	"github.com/cbegin/ambigen/internal/automaton"
	"github.com/cbegin/ambigen/internal/loops"
	"github.com/cbegin/ambigen/internal/lsystem"
	"github.com/cbegin/ambigen/internal/markov"
	"github.com/cbegin/ambigen/internal/weighted"
)

// MarkovSource walks a pitch chain. If Rhythm is set, it is walked in step
// with the pitch chain and its states are note lengths in multiples of Step.
type MarkovSource struct {
	Pitches  *markov.Chain
	Rhythm   *markov.Chain
	Step     float64
	Velocity float64

	context  []int
	rcontext []int
	started  bool
	lastLen  float64
}

// NewMarkovSource seeds the walk with seed (at least one pitch).
func NewMarkovSource(pitches *markov.Chain, seed []int, step, velocity float64) (*MarkovSource, error) {
	if len(seed) == 0 {
		return nil, errors.New("sequencer: markov source needs a seed context")
	}
	if step <= 0 {
		return nil, errors.New("sequencer: markov source step must be positive")
	}
	return &MarkovSource{
		Pitches:  pitches,
		Step:     step,
		Velocity: velocity,
		context:  append([]int(nil), seed...),
	}, nil
}

// WithRhythm attaches a duration chain seeded with seed.
func (m *MarkovSource) WithRhythm(rhythm *markov.Chain, seed []int) *MarkovSource {
	m.Rhythm = rhythm
	m.rcontext = append([]int(nil), seed...)
	return m
}

func (m *MarkovSource) Next() (Note, bool, error) {
	p, ok := m.Pitches.Next(m.context)
	if !ok {
		return Note{}, false, nil
	}
	m.context = pushContext(m.context, p, m.Pitches.Order())
	length := 1
	if m.Rhythm != nil {
		if r, ok := m.Rhythm.Next(m.rcontext); ok {
			m.rcontext = pushContext(m.rcontext, r, m.Rhythm.Order())
			if r > 0 {
				length = r
			}
		}
	}
	dur := float64(length) * m.Step
	n := Note{Pitch: clampPitch(p), Duration: dur, Velocity: m.Velocity}
	if m.started {
		n.Offset = m.lastLen
	}
	m.started = true
	m.lastLen = dur
	return n, true, nil
}

func pushContext(ctx []int, s, order int) []int {
	ctx = append(ctx, s)
	if len(ctx) > order {
		ctx = append(ctx[:0], ctx[len(ctx)-order:]...)
	}
	return ctx
}

// WalkSource turns a random walk over pitches into evenly spaced notes.
type WalkSource struct {
	Walk     *weighted.Walk[int]
	Step     float64
	Duration float64
	Velocity float64
	started  bool
}

func (w *WalkSource) Next() (Note, bool, error) {
	p, err := w.Walk.Next()
	if err != nil {
		return Note{}, false, err
	}
	n := Note{Pitch: p, Duration: w.Duration, Velocity: w.Velocity}
	if w.started {
		n.Offset = w.Step
	}
	w.started = true
	return n, true, nil
}

// maxSilentGenerations bounds how many empty rows one Next call computes.
const maxSilentGenerations = 64

// AutomatonSource plays each automaton generation as a chord: live cell i
// sounds scale degree BaseDegree+i. Generations are Step apart.
type AutomatonSource struct {
	CA         *automaton.Elementary
	Scale      Scale
	BaseDegree int
	Step       float64
	Duration   float64
	Velocity   float64

	pending []Note
	offset  float64
	started bool
}

func (a *AutomatonSource) Next() (Note, bool, error) {
	for tries := 0; len(a.pending) == 0; tries++ {
		if tries >= maxSilentGenerations {
			return Note{}, false, nil
		}
		a.fillGeneration()
	}
	n := a.pending[0]
	a.pending = a.pending[1:]
	return n, true, nil
}

func (a *AutomatonSource) fillGeneration() {
	if a.started {
		a.offset += a.Step
		a.CA.Step()
	}
	a.started = true
	active := a.CA.Active()
	if len(active) == 0 {
		return
	}
	vel := a.Velocity / float64(len(active))
	if vel < a.Velocity/4 {
		vel = a.Velocity / 4
	}
	for i, cell := range active {
		n := Note{Pitch: a.Scale.Pitch(a.BaseDegree + cell), Duration: a.Duration, Velocity: vel}
		if i == 0 {
			n.Offset = a.offset
			a.offset = 0
		}
		a.pending = append(a.pending, n)
	}
}

// PhraseSource replays a fixed list of notes with absolute start times,
// optionally looping every Length seconds.
type PhraseSource struct {
	times  []float64
	notes  []Note
	Loop   bool
	Length float64

	idx  int
	base float64
	last float64
}

// NewPhraseSource builds a phrase. times must be non-decreasing.
func NewPhraseSource(notes []Note, times []float64, loop bool, length float64) (*PhraseSource, error) {
	if len(notes) != len(times) {
		return nil, errors.New("sequencer: phrase notes and times differ in length")
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, fmt.Errorf("sequencer: phrase time %d goes backwards", i)
		}
	}
	if loop && len(times) > 0 && length < times[len(times)-1] {
		return nil, errors.New("sequencer: phrase loop length shorter than phrase")
	}
	if loop && length <= 0 {
		return nil, errors.New("sequencer: looping phrase needs a positive length")
	}
	return &PhraseSource{times: times, notes: notes, Loop: loop, Length: length}, nil
}

// PhraseFromLSystem maps interpreted L-system notes onto scale and seconds
// per beat.
func PhraseFromLSystem(ls []lsystem.Note, scale Scale, baseDegree int, beat, velocity float64, loop bool) (*PhraseSource, error) {
	notes := make([]Note, len(ls))
	times := make([]float64, len(ls))
	var end float64
	for i, n := range ls {
		notes[i] = Note{
			Pitch:    scale.Pitch(baseDegree + n.Degree),
			Duration: n.Duration * beat,
			Velocity: velocity / float64(1+n.Depth),
		}
		times[i] = n.Time * beat
		if e := times[i] + notes[i].Duration; e > end {
			end = e
		}
	}
	return NewPhraseSource(notes, times, loop, end)
}

func (p *PhraseSource) Next() (Note, bool, error) {
	if len(p.notes) == 0 {
		return Note{}, false, nil
	}
	if p.idx >= len(p.notes) {
		if !p.Loop {
			return Note{}, false, nil
		}
		p.idx = 0
		p.base += p.Length
	}
	at := p.base + p.times[p.idx]
	n := p.notes[p.idx]
	n.Offset = at - p.last
	p.last = at
	p.idx++
	return n, true, nil
}

// LoopSource plays an incommensurate loop generator. Every loop payload must
// be a Note; its Offset is ignored.
type LoopSource struct {
	Gen  *loops.Generator
	last float64
}

func (l *LoopSource) Next() (Note, bool, error) {
	o, ok := l.Gen.Next()
	if !ok {
		return Note{}, false, nil
	}
	n, isNote := o.Payload.(Note)
	if !isNote {
		return Note{}, false, fmt.Errorf("sequencer: loop %q payload is %T, want Note", o.Name, o.Payload)
	}
	n.Offset = o.Time - l.last
	l.last = o.Time
	return n, true, nil
}
