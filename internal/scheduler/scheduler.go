// Package scheduler drives the periodic listing refresh each view runs
// in the background. Ticks are suppressed while a modal interaction is
// open so an in-flight rename or upload prompt is never clobbered by a
// refresh.
package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for refresh schedulers
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Pause suppresses ticks until Resume; used while a modal is open
	Pause()

	// Resume re-enables ticks after Pause
	Resume()

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	Paused         bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	SuppressedRuns int
	LastError      string
}

// Config contains scheduler configuration
type Config struct {
	// Interval between refresh runs
	Interval time.Duration
}

// Refresher is what schedulers invoke on each tick
type Refresher interface {
	// Refresh re-fetches the view's listing
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to the Refresher interface
type RefresherFunc func(ctx context.Context) error

// Refresh implements Refresher
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}
