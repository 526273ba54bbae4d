// Package clock defines the precise time source the scheduler reads.
//
// A Clock reports seconds on a monotonic timeline. It never schedules
// callbacks; waking up is the job of the scheduler's imprecise Waker. The
// scheduler only reads a Clock and never mutates it.
package clock

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Clock is a read-only monotonic time source in seconds.
type Clock interface {
	Now() float64
}

// System is a Clock backed by the runtime's monotonic wall clock.
type System struct {
	start time.Time
}

// NewSystem returns a System clock whose zero is the moment of the call.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Now() float64 {
	return time.Since(s.start).Seconds()
}

// Manual is a Clock advanced explicitly by tests and offline renders.
// It is safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now float64
}

func (m *Manual) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d seconds. Negative values are ignored.
func (m *Manual) Advance(d float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now += d
	}
	return m.now
}

// Set jumps the clock to t. It does not check monotonicity, so tests can use
// it to simulate a broken clock.
func (m *Manual) Set(t float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Frames counts rendered audio frames. Its Now is the precise "audio clock":
// the position of the render path in seconds. Advance is called from the
// render thread and Now from the control thread, so the counter is atomic.
type Frames struct {
	sampleRate float64
	frames     atomic.Int64
}

func NewFrames(sampleRate int) *Frames {
	return &Frames{sampleRate: float64(sampleRate)}
}

func (f *Frames) Now() float64 {
	if f.sampleRate <= 0 {
		return 0
	}
	return float64(f.frames.Load()) / f.sampleRate
}

// Frame returns the number of frames rendered so far.
func (f *Frames) Frame() int64 { return f.frames.Load() }

// Advance adds n rendered frames.
func (f *Frames) Advance(n int) {
	if n > 0 {
		f.frames.Add(int64(n))
	}
}

// FrameAt converts a time in seconds to the first frame at or after it.
func (f *Frames) FrameAt(t float64) int64 {
	if t <= 0 {
		return 0
	}
	return int64(math.Ceil(t*f.sampleRate - 1e-9))
}

// SampleRate returns the frame rate the clock was built with.
func (f *Frames) SampleRate() int { return int(f.sampleRate) }
