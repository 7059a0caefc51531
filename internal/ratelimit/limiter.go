package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

// Policy names a key namespace with its limit and window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Key builds the store key for identity under this policy.
func (p Policy) Key(identity string) string {
	return p.Name + ":" + identity
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPolicy)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: %s limit must be positive", ErrInvalidPolicy, p.Name)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: %s window must be positive", ErrInvalidPolicy, p.Name)
	}
	return nil
}

// Policy names.
const (
	PolicyAgent     = "agent"
	PolicyLead      = "lead"
	PolicyAnalytics = "analytics"
)

// Policies groups the three request classes the API enforces.
type Policies struct {
	Agent     Policy // keyed by user id
	Lead      Policy // keyed by client IP
	Analytics Policy // keyed by client IP
}

// DefaultPolicies returns the stock limits: 10 agent runs, 100 lead
// captures and 1000 analytics events per hour.
func DefaultPolicies() Policies {
	return Policies{
		Agent:     Policy{Name: PolicyAgent, Limit: 10, Window: time.Hour},
		Lead:      Policy{Name: PolicyLead, Limit: 100, Window: time.Hour},
		Analytics: Policy{Name: PolicyAnalytics, Limit: 1000, Window: time.Hour},
	}
}

// Validate checks every policy.
func (ps Policies) Validate() error {
	for _, p := range []Policy{ps.Agent, ps.Lead, ps.Analytics} {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Limiter applies policies against a Store and resolves store failures.
type Limiter struct {
	store    Store
	backend  string
	failOpen bool
	now      func() time.Time
	logger   logger.Logger
}

// NewLimiter creates a limiter over store. Store failures admit the request
// unless WithFailOpen(false) is given.
func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		backend:  "memory",
		failOpen: true,
		now:      time.Now,
		logger:   logger.Get().Named("ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one hit for identity under p.
func (l *Limiter) Check(ctx context.Context, p Policy, identity string) Decision {
	d, err := l.store.Check(ctx, p.Key(identity), p.Limit, p.Window)
	if err != nil {
		metrics.RecordRateLimitStoreError(l.backend)
		d = l.fallback(p)
		l.logger.Warn(ctx, "rate limit store failed",
			logger.String("policy", p.Name),
			logger.String("backend", l.backend),
			logger.Bool("allowed", d.Allowed),
			logger.Error(err),
		)
	}
	metrics.RecordRateLimitDecision(p.Name, d.Allowed)
	return d
}

// fallback is the decision used when the store cannot answer.
func (l *Limiter) fallback(p Policy) Decision {
	resetAt := l.now().Add(p.Window)
	if l.failOpen {
		return Decision{Allowed: true, Limit: p.Limit, Remaining: p.Limit - 1, ResetAt: resetAt}
	}
	return Decision{Allowed: false, Limit: p.Limit, Remaining: 0, ResetAt: resetAt}
}

// Close closes the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}
