package effects

import "math"

// Chorus is a modulated delay. The right channel's modulation runs a quarter
// cycle ahead of the left, which widens sustained pads.
type Chorus struct {
	bufL, bufR []float32
	pos        int
	size       int
	depth      float32 // modulation depth in samples
	rate       float64 // modulation rate in radians per sample
	phase      float64
	feedback   float32
	wet        float32
}

// NewChorus creates a chorus.
// delayMs: base delay in ms
// feedback: 0..0.9
// depthMs: modulation depth in ms
// rateHz: modulation rate in Hz
// wet: wet/dry mix 0..1
func NewChorus(sampleRate int, delayMs, feedback, depthMs, rateHz, wet float32) *Chorus {
	baseSamples := int(float64(delayMs) * float64(sampleRate) / 1000.0)
	depthSamples := float64(depthMs) * float64(sampleRate) / 1000.0
	size := 2*(baseSamples+int(depthSamples)) + 4
	return &Chorus{
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		size:     size,
		depth:    float32(depthSamples),
		rate:     2.0 * math.Pi * float64(rateHz) / float64(sampleRate),
		feedback: clamp(feedback, 0, 0.9),
		wet:      clamp(wet, 0, 1),
	}
}

// tap reads buf at a fractional distance behind the write head.
func (c *Chorus) tap(buf []float32, delay float32) float32 {
	readPos := float32(c.pos) - delay
	for readPos < 0 {
		readPos += float32(c.size)
	}
	idx := int(readPos)
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}

func (c *Chorus) Process(l, r float32) (float32, float32) {
	center := float32(c.size/2) - 1
	modL := float32(math.Sin(c.phase)) * c.depth
	modR := float32(math.Cos(c.phase)) * c.depth
	c.phase += c.rate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.bufL[c.pos] = l
	c.bufR[c.pos] = r
	delL := c.tap(c.bufL, center+modL)
	delR := c.tap(c.bufR, center+modR)
	c.bufL[c.pos] += delL * c.feedback
	c.bufR[c.pos] += delR * c.feedback
	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return l*(1-c.wet) + delL*c.wet, r*(1-c.wet) + delR*c.wet
}

func (c *Chorus) Reset() {
	clear(c.bufL)
	clear(c.bufR)
	c.pos = 0
	c.phase = 0
}
