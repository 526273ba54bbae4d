package lfo

import "math"

// Waveform constants.
const (
	WaveSaw      = 0
	WaveSquare   = 1
	WaveTriangle = 2
	WaveSine     = 3
)

// LFO is a low-frequency modulator evaluated at absolute times on the
// scheduler's clock. It holds no running phase, so the value at a fire time
// does not depend on how often or in which order it is sampled.
type LFO struct {
	Depth    float64 // peak deviation; the output spans [-Depth, +Depth]
	RateHz   float64 // cycles per second
	Waveform int     // 0=saw, 1=square, 2=triangle, 3=sine
	Phase    float64 // phase offset in cycles [0, 1)
}

// At returns the modulation value at time t seconds.
// Returns 0 if depth or rate is zero.
func (l LFO) At(t float64) float64 {
	if !l.Active() {
		return 0
	}
	phase := t*l.RateHz + l.Phase
	phase -= math.Floor(phase)

	var waveVal float64
	switch l.Waveform {
	case WaveSaw:
		waveVal = 1.0 - 2.0*phase
	case WaveSquare:
		if phase < 0.5 {
			waveVal = 1.0
		} else {
			waveVal = -1.0
		}
	case WaveSine:
		waveVal = math.Sin(2 * math.Pi * phase)
	default: // WaveTriangle
		if phase < 0.5 {
			waveVal = 4.0*phase - 1.0
		} else {
			waveVal = 3.0 - 4.0*phase
		}
	}
	return waveVal * l.Depth
}

// Active returns true if the LFO has non-zero depth and rate.
func (l LFO) Active() bool {
	return l.Depth != 0 && l.RateHz != 0
}

// Scale returns 1 + At(t), clamped at zero: a gain multiplier centred on unity.
func (l LFO) Scale(t float64) float64 {
	v := 1 + l.At(t)
	if v < 0 {
		return 0
	}
	return v
}
