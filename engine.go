// Package ambigen plays generative ambient music: sequencer tracks feed a
// lookahead scheduler whose events are rendered sample-accurately by a small
// polyphonic synth.
package ambigen

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	intapi "github.com/cbegin/ambigen/internal/api"
	intaudio "github.com/cbegin/ambigen/internal/audio"
	intfx "github.com/cbegin/ambigen/internal/effects"
	intsched "github.com/cbegin/ambigen/internal/scheduler"
	intseq "github.com/cbegin/ambigen/internal/sequencer"
	intvoice "github.com/cbegin/ambigen/internal/voice"
)

var (
	ErrUnknownTrack   = errors.New("ambigen: unknown track")
	ErrDuplicateTrack = errors.New("ambigen: duplicate track name")
)

type (
	Status      = intapi.Status
	TrackInfo   = intapi.TrackInfo
	Space       = intfx.Space
	VoiceParams = intvoice.Params
	Track       = intseq.Track
)

func DefaultSpace() Space             { return intfx.DefaultSpace() }
func DefaultVoiceParams() VoiceParams { return intvoice.DefaultParams() }

// DefaultDeviceBuffer keeps device read-ahead below the scheduler's default
// lookahead so every rendered block has already been scheduled.
const DefaultDeviceBuffer = 40 * time.Millisecond

type Option func(*config)

type config struct {
	schedOpts    []intsched.Option
	logger       *slog.Logger
	voice        intvoice.Params
	space        intfx.Space
	deviceBuffer time.Duration
	inbox        int
}

func defaultConfig() config {
	return config{
		logger:       slog.Default(),
		voice:        intvoice.DefaultParams(),
		space:        intfx.DefaultSpace(),
		deviceBuffer: DefaultDeviceBuffer,
		inbox:        intaudio.DefaultInboxSize,
	}
}

// WithSchedulerOptions passes options through to the lookahead scheduler.
func WithSchedulerOptions(opts ...intsched.Option) Option {
	return func(cfg *config) {
		cfg.schedOpts = append(cfg.schedOpts, opts...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func WithVoiceParams(p VoiceParams) Option {
	return func(cfg *config) {
		cfg.voice = p
	}
}

// WithSpace sets the master bus effects. The zero Space renders dry.
func WithSpace(s Space) Option {
	return func(cfg *config) {
		cfg.space = s
	}
}

func WithDeviceBuffer(d time.Duration) Option {
	return func(cfg *config) {
		cfg.deviceBuffer = d
	}
}

func WithInboxSize(n int) Option {
	return func(cfg *config) {
		cfg.inbox = n
	}
}

// Engine owns the scheduler, the renderer that doubles as its clock, and the
// audio device.
type Engine struct {
	mu         sync.Mutex
	sampleRate int
	cfg        config
	logger     *slog.Logger
	renderer   *intaudio.Renderer
	sched      *intsched.Scheduler
	tracks     []*intseq.Track
	byName     map[string]*intseq.Track
	audio      *intaudio.Player
	baseGain   float64
	volume     float64
}

func newRendererAndScheduler(sampleRate int, cfg config) (*intaudio.Renderer, *intsched.Scheduler, error) {
	engine := intvoice.New(sampleRate, cfg.voice)
	renderer := intaudio.NewRenderer(sampleRate, engine,
		intaudio.WithBus(intfx.NewSpace(sampleRate, cfg.space)),
		intaudio.WithInboxSize(cfg.inbox),
		intaudio.WithLogger(cfg.logger),
	)
	opts := append([]intsched.Option{intsched.WithLogger(cfg.logger)}, cfg.schedOpts...)
	sched, err := intsched.New(renderer, renderer, opts...)
	if err != nil {
		return nil, nil, err
	}
	return renderer, sched, nil
}

func NewEngine(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	renderer, sched, err := newRendererAndScheduler(sampleRate, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		sampleRate: sampleRate,
		cfg:        cfg,
		logger:     cfg.logger.With("component", "engine"),
		renderer:   renderer,
		sched:      sched,
		byName:     make(map[string]*intseq.Track),
		baseGain:   cfg.voice.MasterGain,
		volume:     1,
	}, nil
}

// AddTrack registers a track with the scheduler. Tracks may be added while
// the engine runs; a new track starts at its own start time, so give it one
// at or after Now to hear it from the beginning.
func (e *Engine) AddTrack(t *intseq.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.byName[t.Name()]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateTrack, t.Name())
	}
	e.tracks = append(e.tracks, t)
	e.byName[t.Name()] = t
	e.sched.Enqueue(t.Name(), t)
	return nil
}

// Start opens the audio device and begins scheduling. It is a no-op when
// already running.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio == nil {
		backend, err := intaudio.NewPlayer(e.sampleRate, e.renderer, e.cfg.deviceBuffer)
		if err != nil {
			return err
		}
		e.audio = backend
	}
	e.audio.Play()
	e.sched.Start()
	e.logger.Info("engine started", "sample_rate", e.sampleRate, "tracks", len(e.tracks), "lookahead", e.sched.ScheduleAhead())
	return nil
}

// Stop halts scheduling and closes the audio device. Notes already handed to
// the renderer are discarded with the device.
func (e *Engine) Stop() error {
	e.sched.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio == nil {
		return nil
	}
	err := e.audio.Stop()
	e.audio = nil
	e.logger.Info("engine stopped", "dispatched", e.sched.Stats().Dispatched, "dropped", e.renderer.Drops())
	return err
}

// Errors reports producer failures, rejected events and clock faults.
func (e *Engine) Errors() <-chan error { return e.sched.Errors() }

// Now is the engine clock: seconds of audio rendered so far.
func (e *Engine) Now() float64 { return e.renderer.Now() }

func (e *Engine) track(name string) (*intseq.Track, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownTrack, name, intapi.ErrNotFound)
	}
	return t, nil
}

// SetTrackRate changes a track's speed; it applies from the track's next
// note, already scheduled notes keep their times.
func (e *Engine) SetTrackRate(name string, rate float64) error {
	t, err := e.track(name)
	if err != nil {
		return err
	}
	t.SetRate(rate)
	return nil
}

func (e *Engine) SetTrackGain(name string, gain float64) error {
	t, err := e.track(name)
	if err != nil {
		return err
	}
	t.SetGain(gain)
	return nil
}

func (e *Engine) SetTrackMuted(name string, muted bool) error {
	t, err := e.track(name)
	if err != nil {
		return err
	}
	t.SetMuted(muted)
	return nil
}

func (e *Engine) Tracks() []TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TrackInfo, 0, len(e.tracks))
	for _, t := range e.tracks {
		out = append(out, TrackInfo{Name: t.Name(), Rate: t.Rate(), Gain: t.Gain(), Muted: t.Muted(), Notes: t.Notes()})
	}
	return out
}

func (e *Engine) Status() Status {
	st := e.sched.Stats()
	return Status{
		Running:        st.Running,
		Now:            e.renderer.Now(),
		Producers:      st.Producers,
		Pending:        st.Pending,
		Dispatched:     st.Dispatched,
		Rejected:       st.Rejected,
		LastDispatched: st.LastDispatched,
		Dropped:        e.renderer.Drops(),
		ActiveVoices:   e.renderer.ActiveVoices(),
	}
}

// Handler returns the HTTP control API for this engine.
func (e *Engine) Handler() http.Handler {
	return intapi.NewHandler(e, e.cfg.logger.With("component", "api"))
}

func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetMasterVolume scales the synth's master gain, clamped to [0, 2].
func (e *Engine) SetMasterVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(2, v))
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
	e.renderer.Engine().SetMasterGain(e.baseGain * v)
}

var _ intapi.Callbacks = (*Engine)(nil)
