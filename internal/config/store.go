package config

import (
	"sort"
	"sync"
)

// Observer is called after the settings change.
type Observer func(old, updated Settings)

// Subscription is an active observer registration.
type Subscription struct {
	id    uint64
	store *Store
}

// Unsubscribe removes the observer.
func (s *Subscription) Unsubscribe() {
	if s.store == nil {
		return
	}
	s.store.mu.Lock()
	delete(s.store.observers, s.id)
	s.store.mu.Unlock()
}

// Store holds the current settings and notifies observers of changes.
// Readers receive copies, so a pass always works on a consistent
// snapshot.
type Store struct {
	mu        sync.RWMutex
	current   Settings
	observers map[uint64]Observer
	nextID    uint64
}

// NewStore creates a Store holding s.
func NewStore(s Settings) *Store {
	return &Store{current: s.Clone(), observers: make(map[uint64]Observer)}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.Clone()
}

// Set normalizes and stores s, then notifies observers synchronously in
// subscription order. It returns the normalization warnings.
func (st *Store) Set(s Settings) []string {
	return st.commit(func(Settings) Settings { return s })
}

// Update applies fn to a copy of the current settings and stores the
// result. The read and the write happen under one lock, so concurrent
// updates are not lost. fn must not call back into the store.
func (st *Store) Update(fn func(*Settings)) []string {
	return st.commit(func(cur Settings) Settings {
		fn(&cur)
		return cur
	})
}

func (st *Store) commit(next func(cur Settings) Settings) []string {
	st.mu.Lock()
	old := st.current
	s := next(old.Clone()).Clone()
	warnings := s.Normalize()
	st.current = s
	ids := make([]uint64, 0, len(st.observers))
	for id := range st.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = st.observers[id]
	}
	st.mu.Unlock()

	for _, o := range observers {
		o(old.Clone(), s.Clone())
	}
	return warnings
}

// Subscribe registers an observer.
func (st *Store) Subscribe(o Observer) *Subscription {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.observers[id] = o
	return &Subscription{id: id, store: st}
}
