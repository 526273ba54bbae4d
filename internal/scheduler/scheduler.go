// Package scheduler implements a lookahead event scheduler.
//
// Two clocks are involved. A precise Clock (usually the audio render
// position) defines when events fire; an imprecise Waker wakes the scheduler
// every poll interval. On each wake the scheduler pulls events from its
// producers and hands every event due before Now+ScheduleAhead to the
// Emitter, in ascending FireTime order. Because the poll interval is shorter
// than the lookahead window, consecutive windows overlap and a late wake only
// means more events go out at once.
package scheduler

import (
	"container/heap"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cbegin/ambigen/internal/clock"
)

// Event is a payload bound to an absolute time on the Clock's timeline.
// A zero ID is replaced by a random one on admission.
type Event struct {
	ID       uuid.UUID
	FireTime float64
	Payload  any
}

// Producer is a pull-based event source. Pull returns ok=false when no event
// is ready yet; the scheduler then stops pulling it until the next wake.
// Events of one producer are expected in non-decreasing FireTime order.
type Producer interface {
	Pull() (ev Event, ok bool, err error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func() (Event, bool, error)

func (f ProducerFunc) Pull() (Event, bool, error) { return f() }

// Emitter receives dispatched events. Dispatch must not block and must not
// call back into the Scheduler.
type Emitter interface {
	Dispatch(payload any, fireTime float64)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(payload any, fireTime float64)

func (f EmitterFunc) Dispatch(payload any, fireTime float64) { f(payload, fireTime) }

type registration struct {
	name     string
	producer Producer
	queued   int  // events admitted and not yet dispatched
	idle     bool // returned ok=false during the current tick
	pulls    int
	failed   bool
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Running        bool
	Producers      int
	Pending        int
	Dispatched     int64
	Rejected       int64
	LastDispatched float64
	LastNow        float64
}

type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	emitter Emitter
	cfg     config
	logger  *slog.Logger

	queue     *pendingQueue
	producers []*registration
	seq       uint64

	lastNow        float64
	observed       bool
	lastDispatched float64
	dispatched     int64
	rejected       int64

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	errCh   chan error
}

// New builds a scheduler reading clk and dispatching to em. It returns a
// *ConfigError when the options are inconsistent.
func New(clk clock.Clock, em Emitter, opts ...Option) (*Scheduler, error) {
	if clk == nil {
		return nil, &ConfigError{Field: "clock", Reason: "must not be nil"}
	}
	if em == nil {
		return nil, &ConfigError{Field: "emitter", Reason: "must not be nil"}
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		clock:          clk,
		emitter:        em,
		cfg:            cfg,
		logger:         cfg.logger.With("component", "scheduler"),
		queue:          newPendingQueue(),
		lastDispatched: math.Inf(-1),
		errCh:          make(chan error, errorBuffer),
	}, nil
}

// ScheduleAhead returns the lookahead window in seconds.
func (s *Scheduler) ScheduleAhead() float64 { return s.cfg.scheduleAhead }

// Errors returns the channel that receives producer failures, rejected
// events and clock regressions. Sends never block; errors are dropped when
// the buffer is full.
func (s *Scheduler) Errors() <-chan error { return s.errCh }

// Enqueue registers a producer. Producers are pulled in registration order.
func (s *Scheduler) Enqueue(name string, p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producers = append(s.producers, &registration{name: name, producer: p})
}

// Schedule admits a single event directly into the pending queue.
func (s *Scheduler) Schedule(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admit(ev, nil)
}

// Start begins polling on the configured Waker. Calling Start on a running
// scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stopCh, s.doneCh = stop, done
	w := s.cfg.newWaker(s.cfg.pollInterval)
	go s.loop(w, stop, done)
}

// Stop halts polling and discards pending events. Events already handed to
// the Emitter are not recalled. Stop waits for the wake loop to exit, so it
// must not be called from a Producer or Emitter.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop, done := s.stopCh, s.doneCh
	s.halt()
	s.mu.Unlock()
	close(stop)
	<-done
}

// Running reports whether the wake loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// halt clears run state and drops pending events. Caller holds mu.
func (s *Scheduler) halt() {
	s.running = false
	s.stopCh, s.doneCh = nil, nil
	s.queue.reset()
	for _, reg := range s.producers {
		reg.queued = 0
	}
}

func (s *Scheduler) loop(w Waker, stop, done chan struct{}) {
	defer close(done)
	defer w.Stop()
	if !s.pollFrom(stop) {
		return
	}
	for {
		select {
		case <-stop:
			return
		case <-w.C():
			if !s.pollFrom(stop) {
				return
			}
		}
	}
}

// pollFrom runs one tick on behalf of the wake loop identified by stop and
// reports whether the loop should continue.
func (s *Scheduler) pollFrom(stop chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != stop {
		return false
	}
	if err := s.tick(); err != nil {
		s.logger.Error("poll failed, stopping", "err", err)
		s.report(err)
		s.halt()
		return false
	}
	return true
}

// Poll runs a single tick: pull from producers and dispatch everything due
// before Now+ScheduleAhead. Offline renders and tests call it directly
// instead of Start.
func (s *Scheduler) Poll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick()
}

func (s *Scheduler) tick() error {
	now := s.clock.Now()
	if s.observed && now < s.lastNow {
		return fmt.Errorf("%w: now %.9f < %.9f", ErrClockRegression, now, s.lastNow)
	}
	s.observed = true
	s.lastNow = now
	horizon := now + s.cfg.scheduleAhead

	for _, reg := range s.producers {
		reg.idle = false
		reg.pulls = 0
	}
	for {
		// Each producer holds at most one event in the queue between pulls,
		// so dispatch below is a merge of sorted producer streams.
		for _, reg := range s.producers {
			s.fill(reg)
		}
		it := s.queue.peek()
		if it == nil || it.ev.FireTime >= horizon {
			break
		}
		s.queue.take()
		if it.owner != nil {
			it.owner.queued--
		}
		s.lastDispatched = it.ev.FireTime
		s.dispatched++
		s.emitter.Dispatch(it.ev.Payload, it.ev.FireTime)
	}
	s.compact()
	return nil
}

func (s *Scheduler) fill(reg *registration) {
	for reg.queued == 0 && !reg.idle && !reg.failed {
		if reg.pulls >= maxPullsPerTick {
			s.logger.Warn("producer pull limit reached", "producer", reg.name)
			reg.idle = true
			return
		}
		reg.pulls++
		ev, ok, err := pull(reg.producer)
		if err != nil {
			reg.failed = true
			perr := &ProducerError{Producer: reg.name, Err: err}
			s.logger.Warn("producer failed", "producer", reg.name, "err", err)
			s.report(perr)
			return
		}
		if !ok {
			reg.idle = true
			return
		}
		if err := s.admit(ev, reg); err != nil {
			s.report(&ProducerError{Producer: reg.name, Err: err})
		}
	}
}

func pull(p Producer) (ev Event, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Pull()
}

// admit applies the late-event policy and pushes ev. Caller holds mu.
func (s *Scheduler) admit(ev Event, owner *registration) error {
	if math.IsNaN(ev.FireTime) || math.IsInf(ev.FireTime, 0) {
		s.rejected++
		return fmt.Errorf("%w: fire time %v", ErrLateEvent, ev.FireTime)
	}
	if ev.FireTime < s.lastDispatched {
		if s.lastDispatched-ev.FireTime > s.cfg.lateTolerance {
			s.rejected++
			s.logger.Warn("late event rejected", "fire_time", ev.FireTime, "last_dispatched", s.lastDispatched)
			return fmt.Errorf("%w: %.6f < %.6f", ErrLateEvent, ev.FireTime, s.lastDispatched)
		}
		ev.FireTime = s.lastDispatched
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	} else if s.queue.contains(ev.ID) {
		s.rejected++
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.ID)
	}
	s.seq++
	s.queue.admit(&item{ev: ev, seq: s.seq, owner: owner})
	if owner != nil {
		owner.queued++
	}
	return nil
}

func (s *Scheduler) compact() {
	live := s.producers[:0]
	for _, reg := range s.producers {
		if !reg.failed {
			live = append(live, reg)
		}
	}
	for i := len(live); i < len(s.producers); i++ {
		s.producers[i] = nil
	}
	s.producers = live
}

func (s *Scheduler) report(err error) {
	select {
	case s.errCh <- err:
	default:
		// Buffer full; the error was already logged.
	}
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.lastDispatched
	if math.IsInf(last, -1) {
		last = 0
	}
	return Stats{
		Running:        s.running,
		Producers:      len(s.producers),
		Pending:        s.queue.Len(),
		Dispatched:     s.dispatched,
		Rejected:       s.rejected,
		LastDispatched: last,
		LastNow:        s.lastNow,
	}
}

var _ heap.Interface = (*pendingQueue)(nil)
