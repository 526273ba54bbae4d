package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo float32 buffers.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to the 32-bit float little-endian
// stereo byte stream ebiten reads.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	tap    func([]float32)
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

// SetTap installs a callback that sees each rendered buffer. It runs on the
// audio goroutine.
func (r *StreamReader) SetTap(tap func([]float32)) {
	r.mu.Lock()
	r.tap = tap
	r.mu.Unlock()
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	if r.tap != nil {
		r.tap(r.buf)
	}
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

// Player streams a SampleSource to the default audio device.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one audio context per process.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a player for source. bufferSize bounds how far the device
// reads ahead of what is heard; zero keeps ebiten's default.
func NewPlayer(sampleRate int, source SampleSource, bufferSize time.Duration) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	if bufferSize > 0 {
		pl.SetBufferSize(bufferSize)
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// SetVolume sets device volume, 0..1.
func (p *Player) SetVolume(v float64) { p.player.SetVolume(v) }

// Tap forwards to the stream's SetTap.
func (p *Player) Tap(tap func([]float32)) { p.reader.SetTap(tap) }

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
