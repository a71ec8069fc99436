package search

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single callback after a
// quiet window. Each Trigger replaces the pending callback and restarts
// the window; Stop cancels anything pending.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet window
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = 350 * time.Millisecond
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn after the quiet window, replacing any pending call
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels any pending callback
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Sequencer guards against stale search responses. Every outbound query
// takes a token from Issue; a response is applied only when its token is
// still the latest issued.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
}

// Issue returns the next request token
func (s *Sequencer) Issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Current reports whether token belongs to the latest issued request
func (s *Sequencer) Current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.latest
}
