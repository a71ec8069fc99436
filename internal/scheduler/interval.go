package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/depotctl/depotctl/internal/logger"
)

// IntervalScheduler runs a refresher at fixed intervals
type IntervalScheduler struct {
	config    Config
	refresher Refresher
	status    *Status
	mu        sync.RWMutex

	stopChan  chan struct{}
	stoppedCh chan struct{}
	running   bool
	paused    bool
	stopOnce  sync.Once
	closeOnce sync.Once
}

// NewIntervalScheduler creates a new interval-based scheduler
func NewIntervalScheduler(config Config, refresher Refresher) *IntervalScheduler {
	return &IntervalScheduler{
		config:    config,
		refresher: refresher,
		status:    &Status{},
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the scheduling loop
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.status.Running = true
	s.status.NextRunTime = time.Now().Add(s.config.Interval)
	s.mu.Unlock()

	log := logger.Get().With("component", "scheduler")
	log.Info("starting refresh scheduler", "interval", s.config.Interval)

	go s.run(ctx)
	return nil
}

// Stop gracefully stops the scheduler
func (s *IntervalScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	// Wait for the run loop to exit
	<-s.stoppedCh

	s.mu.Lock()
	s.running = false
	s.status.Running = false
	s.mu.Unlock()

	logger.Get().With("component", "scheduler").Info("refresh scheduler stopped")
	return nil
}

// Pause suppresses ticks until Resume. A tick that fires while paused
// counts as suppressed and performs no refresh.
func (s *IntervalScheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.status.Paused = true
}

// Resume re-enables ticks after Pause
func (s *IntervalScheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.status.Paused = false
}

// Status returns a copy of the current scheduler status
func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	statusCopy := *s.status
	return &statusCopy
}

// run is the main scheduling loop
func (s *IntervalScheduler) run(ctx context.Context) {
	defer s.closeOnce.Do(func() {
		close(s.stoppedCh)
	})

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Refresh once immediately so the view is populated before the
	// first interval elapses.
	s.executeRefresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.executeRefresh(ctx)
		}
	}
}

// executeRefresh performs a single refresh run, honoring pause state
func (s *IntervalScheduler) executeRefresh(ctx context.Context) {
	s.mu.Lock()
	if s.paused {
		s.status.SuppressedRuns++
		s.status.NextRunTime = time.Now().Add(s.config.Interval)
		s.mu.Unlock()
		return
	}
	s.status.TotalRuns++
	s.status.LastRunTime = time.Now()
	s.mu.Unlock()

	log := logger.Get().With("component", "scheduler")

	err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.FailedRuns++
		s.status.LastError = err.Error()
		log.Warn("refresh failed", "error", err)
	} else {
		s.status.SuccessfulRuns++
		s.status.LastError = ""
	}
	s.status.NextRunTime = time.Now().Add(s.config.Interval)
}
