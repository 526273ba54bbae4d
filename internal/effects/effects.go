package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBuffer runs the chain over interleaved stereo samples in place.
func (c *Chain) ProcessBuffer(buf []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = c.Process(buf[i], buf[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

// Space describes the master bus: a slow chorus into a ping-pong echo into a
// long reverb, glued by a gentle compressor. Zero wet levels leave a stage out.
type Space struct {
	ChorusWet   float32
	EchoMs      float64
	EchoFeed    float32
	EchoWet     float32
	RoomSize    float32
	ReverbDecay float32
	ReverbWet   float32
	Glue        bool
}

// DefaultSpace is a wide, washed-out room.
func DefaultSpace() Space {
	return Space{
		ChorusWet:   0.25,
		EchoMs:      375,
		EchoFeed:    0.45,
		EchoWet:     0.22,
		RoomSize:    0.9,
		ReverbDecay: 0.84,
		ReverbWet:   0.35,
		Glue:        true,
	}
}

// NewSpace builds the master bus chain for s.
func NewSpace(sampleRate int, s Space) *Chain {
	c := NewChain()
	if s.ChorusWet > 0 {
		c.Add(NewChorus(sampleRate, 18, 0.15, 4, 0.13, s.ChorusWet))
	}
	if s.EchoWet > 0 && s.EchoMs > 0 {
		c.Add(NewDelay(sampleRate, s.EchoMs, s.EchoFeed, 0.8, s.EchoWet))
	}
	if s.ReverbWet > 0 {
		c.Add(NewReverb(sampleRate, s.RoomSize, s.ReverbDecay, s.ReverbWet))
	}
	if s.Glue {
		c.Add(NewCompressor(sampleRate, -14, 3, 20, 400, 2))
	}
	return c
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
