package ambigen

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	intseq "github.com/cbegin/ambigen/internal/sequencer"
)

// RenderQuantum is the largest block, in frames, of offline rendering. The
// scheduler is polled once per block, and blocks never span more than the
// lookahead window.
const RenderQuantum = 128

// RenderOffline renders seconds of interleaved stereo audio from tracks
// without an audio device. The scheduler runs against the renderer's frame
// clock, so equal inputs produce identical samples.
//
// Producer failures do not stop the render; they are joined into the
// returned error alongside the full sample buffer.
func RenderOffline(tracks []*intseq.Track, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("invalid duration %v", seconds)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	renderer, sched, err := newRendererAndScheduler(sampleRate, cfg)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if seen[t.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTrack, t.Name())
		}
		seen[t.Name()] = true
		sched.Enqueue(t.Name(), t)
	}

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	var errs []error
	collect := func() {
		for {
			select {
			case err := <-sched.Errors():
				errs = append(errs, err)
			default:
				return
			}
		}
	}
	block := max(1, min(RenderQuantum, int(sched.ScheduleAhead()*float64(sampleRate))))
	for start := 0; start < frames; start += block {
		if err := sched.Poll(); err != nil {
			return nil, err
		}
		collect()
		end := min(start+block, frames)
		renderer.Process(out[2*start : 2*end])
	}
	collect()
	cfg.logger.Debug("offline render done", "frames", frames, "dispatched", sched.Stats().Dispatched, "dropped", renderer.Drops())
	return out, errors.Join(errs...)
}

// EncodeWAVFloat32LE wraps samples in a 32-bit float WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	putWAVHeader(out, dataSize, sampleRate, channels)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

// WriteWAV streams samples as a 32-bit float WAV to w.
func WriteWAV(w io.Writer, samples []float32, sampleRate int, channels int) error {
	header := make([]byte, 44)
	putWAVHeader(header, len(samples)*4, sampleRate, channels)
	if _, err := w.Write(header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

func putWAVHeader(out []byte, dataSize, sampleRate, channels int) {
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*4))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*4))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}
