package voice

import (
	"math"
	"sync/atomic"
)

const twoPi = math.Pi * 2

type Params struct {
	Voices      int
	MasterGain  float64
	AttackSec   float64
	DecaySec    float64
	SustainLvl  float64
	ReleaseSec  float64
	PulseDutyA  float64
	PulseDutyB  float64
	VelocityAmp float64
	LPFCutoff   float64 // lowpass filter cutoff in Hz (0 = disabled)
}

// DefaultParams favours slow, soft envelopes.
func DefaultParams() Params {
	return Params{
		Voices:      24,
		MasterGain:  0.22,
		AttackSec:   0.04,
		DecaySec:    0.6,
		SustainLvl:  0.55,
		ReleaseSec:  1.2,
		PulseDutyA:  0.125,
		PulseDutyB:  0.5,
		VelocityAmp: 0.85,
		LPFCutoff:   6000,
	}
}

// Waveform programs accepted by NoteOn. Other values wrap modulo the count.
const (
	ProgramSine = iota
	ProgramTriangle
	ProgramPulseA
	ProgramPulseB
	ProgramNoise
	programCount
)

type waveType int

const (
	waveSine waveType = iota
	waveTriangle
	wavePulseA
	wavePulseB
	waveNoise
)

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type voice struct {
	active    bool
	id        int
	age       int
	wave      waveType
	freq      float64
	phase     float64
	velocity  float64
	env       float64
	envState  envState
	pan       float64
	noiseLFSR uint16
}

// Engine is a small polyphonic synth. NoteOn, NoteOff and RenderFrame must be
// called from one goroutine; SetMasterGain may be called from any.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain uint64
	dcPrevInL  float64
	dcPrevOutL float64
	dcPrevInR  float64
	dcPrevOutR float64
	lpfL       float64
	lpfR       float64
	lpfAlpha   float64
}

func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 24
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
	for i := range e.voices {
		e.voices[i].noiseLFSR = uint16(0xACE1 + i*97)
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		e.lpfAlpha = dt / (rc + dt)
	}
	return e
}

// NoteOn starts a voice and returns its id for NoteOff. velocity is 0..1 and
// pan is -64..64.
func (e *Engine) NoteOn(note int, velocity float64, pan int, program int) int {
	slot := e.stealVoice()
	id := e.nextID
	e.nextID++
	v := &e.voices[slot]
	v.active = true
	v.id = id
	v.age = 0
	v.wave = waveForProgram(program)
	v.freq = midiToFreq(note)
	v.phase = 0
	v.velocity = clamp(velocity, 0, 1)
	v.env = 0
	v.envState = envAttack
	v.pan = clamp(float64(pan), -64, 64)
	if v.noiseLFSR == 0 {
		v.noiseLFSR = 0xACE1
	}
	return id
}

func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.id == id && v.envState != envRelease {
			v.envState = envRelease
		}
	}
}

func (e *Engine) RenderFrame() (float32, float32) {
	gain := e.masterGainValue()
	var l, r float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		v.age++
		env := e.advanceEnv(v)
		if !v.active {
			continue
		}
		sig := e.renderWave(v) * env * (0.15 + v.velocity*e.params.VelocityAmp)
		angle := ((v.pan + 64.0) / 128.0) * (math.Pi / 2.0)
		l += sig * math.Cos(angle) * gain
		r += sig * math.Sin(angle) * gain
	}
	l = e.dcBlockL(l)
	r = e.dcBlockR(r)
	if e.lpfAlpha > 0 {
		e.lpfL += e.lpfAlpha * (l - e.lpfL)
		e.lpfR += e.lpfAlpha * (r - e.lpfR)
		l, r = e.lpfL, e.lpfR
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

func (e *Engine) dcBlockL(x float64) float64 {
	const r = 0.995
	y := x - e.dcPrevInL + r*e.dcPrevOutL
	e.dcPrevInL = x
	e.dcPrevOutL = y
	return y
}

func (e *Engine) dcBlockR(x float64) float64 {
	const r = 0.995
	y := x - e.dcPrevInR + r*e.dcPrevOutR
	e.dcPrevInR = x
	e.dcPrevOutR = y
	return y
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) pulse(v *voice, duty, dt float64) float64 {
	out := -1.0
	if v.phase < duty {
		out = 1
	}
	out += polyBLEP(v.phase, dt)
	out -= polyBLEP(math.Mod(v.phase-duty+1, 1), dt)
	return out
}

func (e *Engine) renderWave(v *voice) float64 {
	dt := v.freq / e.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch v.wave {
	case waveSine:
		return math.Sin(twoPi * v.phase)
	case waveTriangle:
		return 2*math.Abs(2*v.phase-1) - 1
	case wavePulseA:
		return e.pulse(v, e.params.PulseDutyA, dt)
	case wavePulseB:
		return e.pulse(v, e.params.PulseDutyB, dt)
	case waveNoise:
		if v.phase < dt {
			bit := (v.noiseLFSR ^ (v.noiseLFSR >> 1)) & 1
			v.noiseLFSR = (v.noiseLFSR >> 1) | (bit << 15)
		}
		if v.noiseLFSR&1 == 1 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

func waveForProgram(program int) waveType {
	p := program % programCount
	if p < 0 {
		p += programCount
	}
	return waveType(p)
}

func (e *Engine) stealVoice() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	// Steal the oldest releasing voice, or failing that the oldest active voice.
	oldestRelease := -1
	oldestReleaseAge := -1
	oldestActive := 0
	oldestActiveAge := -1
	for i := range e.voices {
		v := &e.voices[i]
		if v.envState == envRelease && v.age > oldestReleaseAge {
			oldestRelease = i
			oldestReleaseAge = v.age
		}
		if v.age > oldestActiveAge {
			oldestActive = i
			oldestActiveAge = v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldestActive
}

func (e *Engine) advanceEnv(v *voice) float64 {
	switch v.envState {
	case envAttack:
		step := 1.0
		if e.params.AttackSec > 0 {
			step = 1.0 / (e.params.AttackSec * e.sampleRate)
		}
		v.env += step
		if v.env >= 1 {
			v.env = 1
			v.envState = envDecay
		}
	case envDecay:
		step := 1.0
		if e.params.DecaySec > 0 {
			step = (1 - e.params.SustainLvl) / (e.params.DecaySec * e.sampleRate)
		}
		v.env -= step
		if v.env <= e.params.SustainLvl {
			v.env = e.params.SustainLvl
			v.envState = envSustain
		}
	case envSustain:
	case envRelease:
		step := 1.0
		if e.params.ReleaseSec > 0 {
			step = math.Max(e.params.SustainLvl, 0.01) / (e.params.ReleaseSec * e.sampleRate)
		}
		v.env -= step
		if v.env <= 0.0001 {
			v.env = 0
			v.envState = envOff
			v.active = false
		}
	case envOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
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

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 || math.IsNaN(gain) {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) MasterGain() float64 { return e.masterGainValue() }

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}
