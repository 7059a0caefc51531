package ratelimit

import (
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepInterval sets how often closed windows are dropped; <= 0 disables the sweep.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepInterval = d
	}
}

// WithMemoryLogger sets the store logger.
func WithMemoryLogger(l logger.Logger) MemoryOption {
	return func(s *MemoryStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock replaces time.Now used to derive ResetAt.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyPrefix namespaces every key written to Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithFailOpen controls whether store failures admit the request.
func WithFailOpen(failOpen bool) Option {
	return func(l *Limiter) {
		l.failOpen = failOpen
	}
}

// WithBackendName labels store error metrics.
func WithBackendName(name string) Option {
	return func(l *Limiter) {
		if name != "" {
			l.backend = name
		}
	}
}

// WithLimiterClock sets the clock used for fallback decisions.
func WithLimiterClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the limiter logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Limiter) {
		if lg != nil {
			l.logger = lg
		}
	}
}
