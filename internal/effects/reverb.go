package effects

// Reverb is a Schroeder reverb with damped combs. The right channel uses
// slightly longer delay lines than the left for width.
type Reverb struct {
	left  reverbSide
	right reverbSide
	wet   float32
}

type reverbSide struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
}

type combFilter struct {
	buf   []float32
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

const stereoSpread = 23

// NewReverb creates a reverb.
// roomSize: 0..1 scales the delay lengths
// decay: 0..1 comb feedback
// wet: wet/dry mix 0..1
func NewReverb(sampleRate int, roomSize, decay, wet float32) *Reverb {
	base := int(float32(sampleRate) * clamp(roomSize, 0, 1) * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clamp(decay, 0, 0.95)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	r.left = newReverbSide(base, fb, 0)
	r.right = newReverbSide(base, fb, stereoSpread*sampleRate/44100)
	return r
}

func newReverbSide(base int, fb float32, spread int) reverbSide {
	var s reverbSide
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range s.combs {
		s.combs[i] = combFilter{buf: make([]float32, combLens[i]+spread), fb: fb, damp: 0.3}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range s.allpass {
		s.allpass[i] = allpassFilter{buf: make([]float32, max(apLens[i]+spread, 1)), fb: 0.5}
	}
	return s
}

func (s *reverbSide) process(in float32) float32 {
	var out float32
	for i := range s.combs {
		out += s.combs[i].process(in)
	}
	out *= 0.25
	for i := range s.allpass {
		out = s.allpass[i].process(out)
	}
	return out
}

func (s *reverbSide) reset() {
	for i := range s.combs {
		clear(s.combs[i].buf)
		s.combs[i].pos = 0
		s.combs[i].store = 0
	}
	for i := range s.allpass {
		clear(s.allpass[i].buf)
		s.allpass[i].pos = 0
	}
}

func (r *Reverb) Process(l, rt float32) (float32, float32) {
	mono := (l + rt) * 0.5
	outL := r.left.process(mono)
	outR := r.right.process(mono)
	return l*(1-r.wet) + outL*r.wet, rt*(1-r.wet) + outR*r.wet
}

func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
