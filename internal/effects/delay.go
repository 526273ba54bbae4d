package effects

// Delay is a stereo echo. cross routes feedback to the opposite channel, so
// cross=1 gives a ping-pong echo.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	cross      float32
	wet        float32
	damp       float32
	lpL, lpR   float32
}

// NewDelay creates an echo of delayMs. Repeats are darkened by a one-pole
// lowpass in the feedback path.
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	samples := int(delayMs * float64(sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &Delay{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
		damp:     0.35,
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	delL := d.bufL[d.pos]
	delR := d.bufR[d.pos]
	d.lpL += (1 - d.damp) * (delL - d.lpL)
	d.lpR += (1 - d.damp) * (delR - d.lpR)
	fbL := d.feedback * (d.lpL*(1-d.cross) + d.lpR*d.cross)
	fbR := d.feedback * (d.lpR*(1-d.cross) + d.lpL*d.cross)
	// Input enters the left line only when fully crossed, so echoes alternate.
	inL, inR := l, r
	if d.cross >= 1 {
		inL, inR = (l+r)*0.5, 0
	}
	d.bufL[d.pos] = inL + fbL
	d.bufR[d.pos] = inR + fbR
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
	d.lpL, d.lpR = 0, 0
}
