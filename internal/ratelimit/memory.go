package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

const defaultSweepInterval = 5 * time.Minute

// entry is one live fixed window.
type entry struct {
	count   int
	resetAt time.Time
}

// expired reports whether the window has closed at now.
func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.resetAt)
}

// MemoryStore keeps counters in a process-local map guarded by a mutex.
// It owns a sweep task that drops closed windows; Check never relies on it.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	now           func() time.Time
	sweepInterval time.Duration
	logger        logger.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a store and starts its sweep task.
// A non-positive sweep interval disables the task.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]*entry),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		logger:        logger.Get().Named("ratelimit"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	} else {
		close(s.done)
	}
	return s
}

// Check applies the fixed-window rule to key. It never returns an error.
func (s *MemoryStore) Check(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return Decision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Decision{Allowed: true, Limit: limit, Remaining: limit - e.count, ResetAt: e.resetAt}, nil
}

// Sweep removes every closed window and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	metrics.RecordRateLimitSwept(removed)
	metrics.UpdateRateLimitEntries(remaining)
	return removed
}

// Len returns the number of stored entries, live or not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug(context.Background(), "swept expired rate limit entries", logger.Int("removed", n))
			}
		}
	}
}

// Close stops the sweep task and waits for it to exit. Safe to call twice.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}
