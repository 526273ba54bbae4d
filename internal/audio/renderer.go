package audio

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cbegin/ambigen/internal/clock"
	"github.com/cbegin/ambigen/internal/effects"
	"github.com/cbegin/ambigen/internal/scheduler"
	"github.com/cbegin/ambigen/internal/sequencer"
	"github.com/cbegin/ambigen/internal/voice"
)

const DefaultInboxSize = 1024

type RendererOption func(*Renderer)

// WithInboxSize sets how many dispatched notes may wait for the render
// goroutine before further dispatches are dropped.
func WithInboxSize(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.inbox = make(chan timedNote, n)
		}
	}
}

// WithBus runs every rendered buffer through chain.
func WithBus(chain *effects.Chain) RendererOption {
	return func(r *Renderer) { r.bus = chain }
}

func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

type timedNote struct {
	frame int64
	seq   uint64
	note  sequencer.Voiced
}

type noteOff struct {
	frame int64
	id    int
}

// Renderer turns dispatched notes into samples. It is the scheduler's
// Emitter and, through its frame counter, its Clock: time advances only as
// audio is rendered, so events land on the frame their fire time names.
//
// Dispatch may be called from any goroutine. Process must be called from a
// single goroutine, normally the audio device's reader.
type Renderer struct {
	frames *clock.Frames
	engine *voice.Engine
	bus    *effects.Chain
	logger *slog.Logger

	inbox   chan timedNote
	seq     atomic.Uint64
	drops   atomic.Int64
	played  atomic.Int64
	ignored atomic.Int64
	voices  atomic.Int64

	// render goroutine only
	pending []timedNote
	offs    []noteOff
}

func NewRenderer(sampleRate int, engine *voice.Engine, opts ...RendererOption) *Renderer {
	r := &Renderer{
		frames: clock.NewFrames(sampleRate),
		engine: engine,
		logger: slog.Default(),
		inbox:  make(chan timedNote, DefaultInboxSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now implements clock.Clock.
func (r *Renderer) Now() float64 { return r.frames.Now() }

func (r *Renderer) SampleRate() int { return r.frames.SampleRate() }

// Dispatch implements scheduler.Emitter. It never blocks; when the inbox is
// full the note is dropped and counted.
func (r *Renderer) Dispatch(payload any, fireTime float64) {
	n, ok := payload.(sequencer.Voiced)
	if !ok {
		r.ignored.Add(1)
		r.logger.Debug("renderer ignored payload", "type", fmt.Sprintf("%T", payload))
		return
	}
	if n.Velocity <= 0 {
		r.ignored.Add(1)
		return
	}
	tn := timedNote{frame: r.frames.FrameAt(fireTime), seq: r.seq.Add(1), note: n}
	select {
	case r.inbox <- tn:
	default:
		if r.drops.Add(1) == 1 {
			r.logger.Warn("renderer inbox full, dropping notes", "fire_time", fireTime, "track", n.Track)
		}
	}
}

// Drops reports notes lost to a full inbox.
func (r *Renderer) Drops() int64 { return r.drops.Load() }

// Played reports notes started.
func (r *Renderer) Played() int64 { return r.played.Load() }

// Ignored reports payloads that were not notes or were silent.
func (r *Renderer) Ignored() int64 { return r.ignored.Load() }

func (r *Renderer) Engine() *voice.Engine { return r.engine }

// ActiveVoices is the sounding voice count after the last Process call. It is
// safe to read from any goroutine.
func (r *Renderer) ActiveVoices() int { return int(r.voices.Load()) }

// Process fills dst with interleaved stereo samples and advances the clock by
// len(dst)/2 frames.
func (r *Renderer) Process(dst []float32) {
	r.drain()
	start := r.frames.Frame()
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		f := start + int64(i)
		r.startDue(f)
		r.stopDue(f)
		dst[2*i], dst[2*i+1] = r.engine.RenderFrame()
	}
	if len(dst)%2 == 1 {
		dst[len(dst)-1] = 0
	}
	r.voices.Store(int64(r.engine.ActiveVoiceCount()))
	r.frames.Advance(frames)
	if r.bus != nil {
		r.bus.ProcessBuffer(dst[:2*frames])
	}
}

func (r *Renderer) drain() {
	for {
		select {
		case tn := <-r.inbox:
			i, _ := slices.BinarySearchFunc(r.pending, tn, compareTimed)
			r.pending = slices.Insert(r.pending, i, tn)
		default:
			return
		}
	}
}

func compareTimed(a, b timedNote) int {
	switch {
	case a.frame < b.frame:
		return -1
	case a.frame > b.frame:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

// startDue starts every pending note at or before frame f. Notes that
// arrived after their frame had already been rendered start immediately.
func (r *Renderer) startDue(f int64) {
	n := 0
	for n < len(r.pending) && r.pending[n].frame <= f {
		v := r.pending[n].note
		id := r.engine.NoteOn(v.Pitch, v.Velocity, v.Pan, v.Program)
		r.played.Add(1)
		length := int64(math.Ceil(v.Duration * float64(r.frames.SampleRate())))
		off := noteOff{frame: f + max(length, 1), id: id}
		i, _ := slices.BinarySearchFunc(r.offs, off, func(a, b noteOff) int {
			switch {
			case a.frame < b.frame:
				return -1
			case a.frame > b.frame:
				return 1
			}
			return 0
		})
		r.offs = slices.Insert(r.offs, i, off)
		n++
	}
	if n > 0 {
		r.pending = slices.Delete(r.pending, 0, n)
	}
}

func (r *Renderer) stopDue(f int64) {
	n := 0
	for n < len(r.offs) && r.offs[n].frame <= f {
		r.engine.NoteOff(r.offs[n].id)
		n++
	}
	if n > 0 {
		r.offs = slices.Delete(r.offs, 0, n)
	}
}

// Idle reports whether no note is queued or sounding. Call it from the
// goroutine that calls Process.
func (r *Renderer) Idle() bool {
	return len(r.inbox) == 0 && len(r.pending) == 0 && len(r.offs) == 0 && r.engine.ActiveVoiceCount() == 0
}

var (
	_ scheduler.Emitter = (*Renderer)(nil)
	_ clock.Clock       = (*Renderer)(nil)
	_ SampleSource      = (*Renderer)(nil)
)
