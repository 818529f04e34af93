package session

import (
	"sync"
	"time"
)

// PostFunc hands a fired task to the host's event loop. It returns an
// error when the task could not be queued.
type PostFunc func(func()) error

// Scheduler holds at most one pending task. Scheduling a new task cancels
// the previous one, so rapid triggers collapse into a single run of the
// most recent task.
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	post  PostFunc
	drop  func(error)
	timer Timer
	gen   uint64
	due   time.Time
}

// NewScheduler creates a Scheduler. post, if non-nil, is used to run
// fired tasks on the host's event loop instead of the timer goroutine.
func NewScheduler(clock Clock, post PostFunc) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock, post: post}
}

// Schedule cancels any pending task and arranges for fn to run after d.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.due = s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() {
		s.fire(gen, fn)
	})
}

func (s *Scheduler) fire(gen uint64, fn func()) {
	s.mu.Lock()
	// A task replaced after its timer fired but before it got here is stale.
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	post, drop := s.post, s.drop
	s.mu.Unlock()

	if post == nil {
		fn()
		return
	}
	if err := post(fn); err != nil && drop != nil {
		drop(err)
	}
}

// OnDropped registers fn to be called when a fired task could not be
// posted. The task is lost in that case.
func (s *Scheduler) OnDropped(fn func(error)) {
	s.mu.Lock()
	s.drop = fn
	s.mu.Unlock()
}

// Cancel drops the pending task. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	return true
}

// Pending reports whether a task is waiting to run.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Due returns when the pending task will run.
func (s *Scheduler) Due() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.due, s.timer != nil
}
