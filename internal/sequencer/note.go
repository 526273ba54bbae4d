package sequencer

// Note is one musical event produced by a generator. Times are seconds.
type Note struct {
	Pitch    int     // MIDI note number
	Duration float64 // sounding length
	Velocity float64 // 0..1
	Offset   float64 // delay after the previous note of the same source
}

// Source lazily yields notes. ok=false means nothing is ready yet; the
// scheduler asks again on its next wake. A non-nil error retires the source.
type Source interface {
	Next() (n Note, ok bool, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Note, bool, error)

func (f SourceFunc) Next() (Note, bool, error) { return f() }

// Voiced is the payload a Track hands to the scheduler.
type Voiced struct {
	Note
	Track   string
	Program int // voice waveform selector
	Pan     int // -64..64
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
