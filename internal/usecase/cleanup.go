package usecase

import (
	"sync"
	"time"
)

// CleanupScheduler arms a single delayed sweep. Calls to Schedule while a
// sweep is pending are coalesced into it.
type CleanupScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	fire     func()
	stopped  bool
}

// NewCleanupScheduler creates a scheduler that calls fire interval after
// the first Schedule of each round. fire runs on a timer goroutine, so it
// should hand the sweep to the owner of the registry rather than run it.
func NewCleanupScheduler(interval time.Duration, fire func()) *CleanupScheduler {
	return &CleanupScheduler{
		interval: interval,
		fire:     fire,
	}
}

// Schedule arms the sweep unless one is already pending. It reports whether
// this call armed it.
func (s *CleanupScheduler) Schedule() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.timer != nil {
		return false
	}
	s.timer = time.AfterFunc(s.interval, s.run)
	return true
}

func (s *CleanupScheduler) run() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.fire()
}

// Pending reports whether a sweep is armed
func (s *CleanupScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any pending sweep and refuses new ones
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// SweepIdleRooms evicts rooms that are both empty and idle for longer than
// idle. It must run on the registry owner's goroutine.
func SweepIdleRooms(reg *RoomRegistry, idle time.Duration) []string {
	return reg.EvictIdle(idle)
}
