// Package cache provides a process-wide keyed store with per-entry TTLs.
// Writers overwrite blindly (last write wins); expired entries are removed
// lazily on write so no background goroutine is needed.
package cache

import (
	"sync"
	"time"
)

// defaultSweepInterval is how often, at most, a write triggers a sweep of
// expired entries.
const defaultSweepInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a TTL cache for values of type V.
type Store[V any] struct {
	mu        sync.RWMutex
	entries   map[string]entry[V]
	lastSweep time.Time
	sweepEach time.Duration
	now       func() time.Time
}

// New creates an empty Store.
func New[V any]() *Store[V] {
	return &Store[V]{
		entries:   make(map[string]entry[V]),
		sweepEach: defaultSweepInterval,
		now:       time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the given TTL, replacing any previous entry.
// A non-positive TTL stores nothing.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	s.sweepLocked(now)
}

// Delete removes the entry for key, if any.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of stored entries, including ones that have expired
// but not yet been swept.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// sweepLocked drops expired entries at most once per sweep interval.
// Caller must hold the write lock.
func (s *Store[V]) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepEach {
		return
	}
	s.lastSweep = now

	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
