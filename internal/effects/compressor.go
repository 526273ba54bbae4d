package effects

import "math"

// Compressor is a stereo-linked bus compressor: both channels follow the
// louder one, so the image does not shift under gain reduction.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32
}

// NewCompressor creates a compressor.
// thresholdDB: threshold in dBFS
// ratio: compression ratio, e.g. 4 for 4:1
// attackMs, releaseMs: envelope times
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    dbToGain(makeupDB),
	}
}

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain(c.env) * c.makeup
	return l * g, r * g
}

// GainReduction returns the current gain applied before makeup, 0..1.
func (c *Compressor) GainReduction() float32 { return c.gain(c.env) }

func (c *Compressor) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.env = 0
}
