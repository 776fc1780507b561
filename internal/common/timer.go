// Package common provides shared timing utilities.
package common

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Timer measures one named span.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewNamedTimer starts a timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration { return t.duration }

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// Stages records consecutive named stage durations of one unit of work,
// e.g. read -> process -> render for one tensor file.
type Stages struct {
	timers []*Timer
}

// Start stops the running stage, if any, and starts a new one.
func (s *Stages) Start(name string) {
	s.stopCurrent()
	s.timers = append(s.timers, NewNamedTimer(name))
}

// Stop stops the running stage and returns the total of all stages.
func (s *Stages) Stop() time.Duration {
	s.stopCurrent()
	return s.Total()
}

// Total is the sum of stopped stages.
func (s *Stages) Total() time.Duration {
	var total time.Duration
	for _, t := range s.timers {
		total += t.duration
	}
	return total
}

// Get returns the duration of the named stage.
func (s *Stages) Get(name string) (time.Duration, bool) {
	for _, t := range s.timers {
		if t.name == name {
			return t.duration, true
		}
	}
	return 0, false
}

func (s *Stages) stopCurrent() {
	if n := len(s.timers); n > 0 && s.timers[n-1].duration == 0 {
		s.timers[n-1].Stop()
	}
}

// LogValue renders stages as a slog group, one attribute per stage.
func (s *Stages) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s.timers)+1)
	for _, t := range s.timers {
		attrs = append(attrs, slog.Duration(t.name, t.duration))
	}
	attrs = append(attrs, slog.Duration("total", s.Total()))
	return slog.GroupValue(attrs...)
}

func (s *Stages) String() string {
	parts := make([]string, 0, len(s.timers))
	for _, t := range s.timers {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}
