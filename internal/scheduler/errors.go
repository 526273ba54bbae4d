package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrClockRegression is returned by Poll when the clock reports a time
	// earlier than one already observed. It is fatal to the wake loop.
	ErrClockRegression = errors.New("scheduler: clock regression")
	// ErrDuplicateEvent rejects an event whose ID is already pending.
	ErrDuplicateEvent = errors.New("scheduler: duplicate event id")
	// ErrLateEvent rejects an event earlier than the last dispatched time by
	// more than the late tolerance.
	ErrLateEvent = errors.New("scheduler: event behind dispatch horizon")
)

// ConfigError reports an invalid scheduler configuration. New returns it and
// no scheduler is built.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scheduler: invalid %s: %s", e.Field, e.Reason)
}

// ProducerError reports a failed or panicking Producer. It is delivered on the
// Errors channel; the producer is dropped and the others keep running.
type ProducerError struct {
	Producer string
	Err      error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("scheduler: producer %q: %v", e.Producer, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }
