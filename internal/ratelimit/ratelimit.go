// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary identity string, with named policies layered on top.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected caller should wait, rounded up to
// whole seconds and never below one.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return (wait + time.Second - 1) / time.Second * time.Second
}

// Store counts hits per key within fixed windows.
//
// Check must treat check-then-increment as one atomic step: limit concurrent
// calls against a fresh key admit exactly limit of them.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
	Close() error
}
