package scheduler

import (
	"log/slog"
	"math"
	"time"
)

const (
	DefaultScheduleAhead = 0.1
	DefaultPollInterval  = 25 * time.Millisecond
	DefaultLateTolerance = 0.005

	errorBuffer = 16
	// maxPullsPerTick bounds how often one producer is pulled in a single tick
	// so a producer that only yields rejected events cannot stall the loop.
	maxPullsPerTick = 1 << 16
)

// Waker is the imprecise periodic wake-up the scheduler polls on.
type Waker interface {
	C() <-chan time.Time
	Stop()
}

type tickerWaker struct {
	t *time.Ticker
}

// NewTickerWaker wraps a time.Ticker.
func NewTickerWaker(d time.Duration) Waker {
	return &tickerWaker{t: time.NewTicker(d)}
}

func (w *tickerWaker) C() <-chan time.Time { return w.t.C }
func (w *tickerWaker) Stop()               { w.t.Stop() }

type Option func(*config)

type config struct {
	scheduleAhead float64
	pollInterval  time.Duration
	lateTolerance float64
	newWaker      func(time.Duration) Waker
	logger        *slog.Logger
}

func defaultConfig() config {
	return config{
		scheduleAhead: DefaultScheduleAhead,
		pollInterval:  DefaultPollInterval,
		lateTolerance: DefaultLateTolerance,
		newWaker:      NewTickerWaker,
		logger:        slog.Default(),
	}
}

// WithScheduleAhead sets how far past Clock.Now, in seconds, events are
// dispatched on each wake.
func WithScheduleAhead(seconds float64) Option {
	return func(cfg *config) {
		cfg.scheduleAhead = seconds
	}
}

// WithPollInterval sets the period of the wake-up timer. It must be shorter
// than the schedule-ahead window.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.pollInterval = d
	}
}

// WithLateTolerance sets how far behind the last dispatched time an event may
// be admitted; such events are moved up to the last dispatched time.
func WithLateTolerance(seconds float64) Option {
	return func(cfg *config) {
		cfg.lateTolerance = seconds
	}
}

// WithWaker replaces the ticker used by Start.
func WithWaker(newWaker func(time.Duration) Waker) Option {
	return func(cfg *config) {
		if newWaker != nil {
			cfg.newWaker = newWaker
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func (cfg config) validate() error {
	if math.IsNaN(cfg.scheduleAhead) || cfg.scheduleAhead <= 0 {
		return &ConfigError{Field: "scheduleAhead", Reason: "must be positive"}
	}
	if cfg.pollInterval <= 0 {
		return &ConfigError{Field: "pollInterval", Reason: "must be positive"}
	}
	if cfg.pollInterval.Seconds() >= cfg.scheduleAhead {
		return &ConfigError{
			Field:  "pollInterval",
			Reason: "must be shorter than scheduleAhead (" + cfg.pollInterval.String() + " >= " + time.Duration(cfg.scheduleAhead*float64(time.Second)).String() + ")",
		}
	}
	if math.IsNaN(cfg.lateTolerance) || cfg.lateTolerance < 0 {
		return &ConfigError{Field: "lateTolerance", Reason: "must not be negative"}
	}
	return nil
}
