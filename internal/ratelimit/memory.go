package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process. Suitable for a single instance and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	sweep   func() bool
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
		sweep:   func() bool { return rand.Float64() < 0.01 },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Check(_ context.Context, key string, policy Policy) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweep() {
		s.cleanup(now)
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(policy.Window)}
		s.entries[key] = e
		return Decision{Allowed: true, Remaining: policy.MaxRequests - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= policy.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Decision{Allowed: true, Remaining: policy.MaxRequests - e.count, ResetAt: e.resetAt}, nil
}

func (s *MemoryStore) cleanup(now time.Time) {
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
}

// Len reports tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
