// Package session tracks the per-document processing state of every open
// view and schedules deferred highlight passes for it.
package session

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for operations on unknown paths.
var ErrSessionNotFound = errors.New("session not found")

// State is the processing state of a session.
type State uint8

const (
	Idle State = iota
	Scheduled
	Processing
	Clearing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Processing:
		return "processing"
	case Clearing:
		return "clearing"
	default:
		return "unknown"
	}
}

// Trigger identifies what scheduled a pass.
type Trigger uint8

const (
	TriggerActivation Trigger = iota
	TriggerEdit
	TriggerScroll
	TriggerSettings
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerActivation:
		return "activation"
	case TriggerEdit:
		return "edit"
	case TriggerScroll:
		return "scroll"
	case TriggerSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Session is the processing state of one document view.
type Session struct {
	// ID identifies the session in logs.
	ID string
	// Path is the cleaned document path.
	Path string

	sched *Scheduler

	mu      sync.Mutex
	state   State
	trigger Trigger
	passes  int
	last    time.Time
}

func newSession(path string, clock Clock, post PostFunc) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		Path:  path,
		sched: NewScheduler(clock, post),
	}
	s.sched.OnDropped(func(error) {
		s.mu.Lock()
		if s.state == Scheduled {
			s.state = Idle
		}
		s.mu.Unlock()
	})
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState records a state transition.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Trigger returns what scheduled the pending or most recent pass.
func (s *Session) Trigger() Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger
}

// Schedule arranges for fn to run after d, replacing any pending pass.
// The session is Scheduled until fn starts, then Processing until it
// returns, then Idle.
func (s *Session) Schedule(trigger Trigger, d time.Duration, fn func()) {
	s.mu.Lock()
	s.state = Scheduled
	s.trigger = trigger
	s.mu.Unlock()

	s.sched.Schedule(d, func() {
		s.run(fn)
	})
}

// RunNow runs fn immediately, cancelling any pending pass.
func (s *Session) RunNow(fn func()) {
	s.sched.Cancel()
	s.run(fn)
}

func (s *Session) run(fn func()) {
	s.mu.Lock()
	s.state = Processing
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.state == Processing {
			s.state = Idle
		}
		s.passes++
		s.last = s.sched.clock.Now()
		s.mu.Unlock()
	}()
	fn()
}

// Cancel drops a pending pass. It reports whether one was pending.
func (s *Session) Cancel() bool {
	cancelled := s.sched.Cancel()
	s.mu.Lock()
	if s.state == Scheduled {
		s.state = Idle
	}
	s.mu.Unlock()
	return cancelled
}

// Pending reports whether a pass is scheduled.
func (s *Session) Pending() bool {
	return s.sched.Pending()
}

// Passes returns how many passes have run.
func (s *Session) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// LastPass returns when the most recent pass finished.
func (s *Session) LastPass() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Manager owns the sessions of all open documents, keyed by path.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	active   *Session
	clock    Clock
	post     PostFunc
}

// NewManager creates a Manager. See NewScheduler for post.
func NewManager(clock Clock, post PostFunc) *Manager {
	if clock == nil {
		clock = RealClock()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		clock:    clock,
		post:     post,
	}
}

// Key normalizes a document path into a session key.
func Key(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// Open returns the session for path, creating it if needed, and makes it
// the active session. The second result reports whether it was created.
func (m *Manager) Open(path string) (*Session, bool) {
	key := Key(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		m.active = s
		return s, false
	}
	s := newSession(key, m.clock, m.post)
	m.sessions[key] = s
	m.order = append(m.order, key)
	m.active = s
	return s, true
}

// Get returns the session for path.
func (m *Manager) Get(path string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[Key(path)]
	return s, ok
}

// Active returns the most recently opened or activated session.
func (m *Manager) Active() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Close cancels any pending pass and forgets the session.
func (m *Manager) Close(path string) error {
	key := Key(path)

	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	for i, p := range m.order {
		if p == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.active == s {
		m.active = nil
		if n := len(m.order); n > 0 {
			m.active = m.sessions[m.order[n-1]]
		}
	}
	m.mu.Unlock()

	s.Cancel()
	return nil
}

// CancelAll drops every pending pass.
func (m *Manager) CancelAll() {
	for _, s := range m.All() {
		s.Cancel()
	}
}

// All returns every session sorted by path.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
