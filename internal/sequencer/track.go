package sequencer

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/ambigen/internal/lfo"
	"github.com/cbegin/ambigen/internal/scheduler"
)

type TrackOption func(*Track)

// WithStart sets the absolute time of the track's first note.
func WithStart(t float64) TrackOption {
	return func(tr *Track) { tr.next = t }
}

// WithProgram selects the voice waveform.
func WithProgram(program int) TrackOption {
	return func(tr *Track) { tr.program = program }
}

// WithPan sets stereo position, -64 (left) .. 64 (right).
func WithPan(pan int) TrackOption {
	return func(tr *Track) { tr.pan = int(clamp(float64(pan), -64, 64)) }
}

// WithSwell modulates velocity by an LFO evaluated at each note's fire time.
func WithSwell(l lfo.LFO) TrackOption {
	return func(tr *Track) { tr.swell = l }
}

// Track adapts a Source to a scheduler.Producer. It owns the time cursor of
// its next note and converts the source's relative offsets into absolute fire
// times.
//
// Rate, Gain and Mute may be changed from any goroutine while the scheduler
// pulls; they are exchanged through atomics so neither side waits on the other.
type Track struct {
	name    string
	src     Source
	program int
	pan     int
	swell   lfo.LFO

	next float64 // only touched from Pull

	rate  atomic.Uint64
	gain  atomic.Uint64
	muted atomic.Bool
	pulls atomic.Int64
}

func NewTrack(name string, src Source, opts ...TrackOption) *Track {
	tr := &Track{name: name, src: src}
	tr.rate.Store(math.Float64bits(1))
	tr.gain.Store(math.Float64bits(1))
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

func (t *Track) Name() string { return t.name }

// Rate is the playback speed multiplier; 2 plays twice as fast.
func (t *Track) Rate() float64 { return math.Float64frombits(t.rate.Load()) }

// SetRate sets the speed multiplier, clamped to [1/16, 16].
func (t *Track) SetRate(rate float64) {
	if math.IsNaN(rate) {
		return
	}
	t.rate.Store(math.Float64bits(clamp(rate, 1.0/16, 16)))
}

func (t *Track) Gain() float64 { return math.Float64frombits(t.gain.Load()) }

// SetGain scales note velocities, clamped to [0, 4].
func (t *Track) SetGain(gain float64) {
	if math.IsNaN(gain) {
		return
	}
	t.gain.Store(math.Float64bits(clamp(gain, 0, 4)))
}

func (t *Track) Muted() bool     { return t.muted.Load() }
func (t *Track) SetMuted(m bool) { t.muted.Store(m) }
func (t *Track) Notes() int64    { return t.pulls.Load() }

// Pull implements scheduler.Producer.
func (t *Track) Pull() (scheduler.Event, bool, error) {
	n, ok, err := t.src.Next()
	if err != nil || !ok {
		return scheduler.Event{}, false, err
	}
	rate := t.Rate()
	if n.Offset > 0 {
		t.next += n.Offset / rate
	}
	fire := t.next
	n.Offset /= rate
	n.Duration /= rate
	vel := n.Velocity * t.Gain()
	if t.swell.Active() {
		vel *= t.swell.Scale(fire)
	}
	if t.Muted() {
		vel = 0
	}
	n.Velocity = clamp(vel, 0, 1)
	t.pulls.Add(1)
	return scheduler.Event{
		FireTime: fire,
		Payload:  Voiced{Note: n, Track: t.name, Program: t.program, Pan: t.pan},
	}, true, nil
}

var _ scheduler.Producer = (*Track)(nil)
