package search

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("fired %d times after Stop, want 0", got)
	}
}

func TestSequencer_DiscardsStaleTokens(t *testing.T) {
	var s Sequencer

	first := s.Issue()
	second := s.Issue()

	if s.Current(first) {
		t.Error("stale token accepted")
	}
	if !s.Current(second) {
		t.Error("latest token rejected")
	}

	third := s.Issue()
	if s.Current(second) {
		t.Error("superseded token accepted")
	}
	if !s.Current(third) {
		t.Error("latest token rejected")
	}
}
