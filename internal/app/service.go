// Package service assembles the LaunchIt components from configuration and
// owns their lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/http/api"
	"github.com/nextwave678/launchit/internal/adapters/http/swagger"
	"github.com/nextwave678/launchit/internal/adapters/llm"
	"github.com/nextwave678/launchit/internal/adapters/mq/queue"
	"github.com/nextwave678/launchit/internal/adapters/mq/worker"
	"github.com/nextwave678/launchit/internal/adapters/notify"
	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/config"
	"github.com/nextwave678/launchit/internal/domain/agent"
	"github.com/nextwave678/launchit/internal/ratelimit"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

// ErrMissingSecret is returned by Start when no JWT secret is configured.
var ErrMissingSecret = errors.New("jwt_secret is required")

// Service wires storage, rate limiting, notifications and the HTTP API.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config

	// Core components
	store     repository.Store
	rlStore   ratelimit.Store
	limiter   *ratelimit.Limiter
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	notifier  worker.Notifier
	completer agent.Completer
	api       *api.Server

	// State. Stores the service opened itself are closed and dropped on
	// Stop; injected ones belong to the caller.
	started     bool
	ownsStore   bool
	ownsRLStore bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a datastore instead of opening the configured SQLite file.
// The caller keeps ownership; Stop does not close it.
func WithStore(st repository.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithRateLimitStore injects the limiter backend. The caller keeps ownership.
func WithRateLimitStore(st ratelimit.Store) Option {
	return func(s *Service) { s.rlStore = st }
}

// WithNotifier overrides the notifier chosen from configuration.
func WithNotifier(n worker.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithCompleter overrides the LLM client chosen from configuration.
func WithCompleter(c agent.Completer) Option {
	return func(s *Service) { s.completer = c }
}

// New constructs a Service for cfg. Nothing is opened until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policies converts the configured limits into limiter policies.
func Policies(cfg *config.Config) ratelimit.Policies {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return ratelimit.Policies{
		Agent:     ratelimit.Policy{Name: ratelimit.PolicyAgent, Limit: cfg.AgentLimit, Window: sec(cfg.AgentWindowSec)},
		Lead:      ratelimit.Policy{Name: ratelimit.PolicyLead, Limit: cfg.LeadLimit, Window: sec(cfg.LeadWindowSec)},
		Analytics: ratelimit.Policy{Name: ratelimit.PolicyAnalytics, Limit: cfg.AnalyticsLimit, Window: sec(cfg.AnalyticsWindowSec)},
	}
}

// Start opens every component and starts the notification workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	cfg := s.cfg
	if cfg.JWTSecret == "" {
		return ErrMissingSecret
	}
	policies := Policies(cfg)
	if err := policies.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting launchit service...")

	if s.store == nil {
		st, err := repository.NewSQLiteStore(ctx, cfg.DatabasePath,
			repository.WithMaxEvents(cfg.MaxEventsPerReport))
		if err != nil {
			return fmt.Errorf("open datastore: %w", err)
		}
		s.store = st
		s.ownsStore = true
		s.logger.Info(ctx, "using sqlite store", logger.String("path", cfg.DatabasePath))
	}

	if s.rlStore == nil {
		st, err := s.openRateLimitStore(ctx)
		if err != nil {
			s.closeStore(ctx)
			return err
		}
		s.rlStore = st
		s.ownsRLStore = true
	}
	s.limiter = ratelimit.NewLimiter(s.rlStore,
		ratelimit.WithBackendName(cfg.RateLimitBackend),
		ratelimit.WithFailOpen(cfg.RateLimitFailOpen),
	)

	if s.notifier == nil {
		if cfg.EmailAPIKey != "" {
			s.notifier = notify.NewEmailNotifier(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom,
				notify.WithSiteURL(cfg.SiteURL))
			s.logger.Info(ctx, "lead notifications by email")
		} else {
			s.notifier = notify.NewLogNotifier(nil)
			s.logger.Info(ctx, "email_api_key not set; lead notifications are logged only")
		}
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.NotifyQueueSize))
	s.pool = worker.NewPool(cfg.NotifyWorkerCount, s.queue, s.notifier)
	// workers outlive the request that started them; Stop drains the queue
	s.pool.Start(context.WithoutCancel(ctx))

	if s.completer == nil && cfg.LLMAPIKey != "" {
		s.completer = llm.New(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout())
	}
	if s.completer == nil {
		s.logger.Warn(ctx, "llm_api_key not set; agent endpoints will answer 503")
	}

	s.api = api.NewServer(api.Dependencies{
		Store:         s.store,
		Limiter:       s.limiter,
		Policies:      policies,
		Verifier:      auth.NewVerifier(cfg.JWTSecret),
		Notifications: s.queue,
		Completer:     s.completer,
	},
		api.WithMaxEvents(cfg.MaxEventsPerReport),
		api.WithSiteURL(cfg.SiteURL),
	)

	s.started = true
	s.logger.Info(ctx, "launchit service started",
		logger.String("rate_limit_backend", cfg.RateLimitBackend),
		logger.Int("notify_workers", cfg.NotifyWorkerCount),
		logger.Int("notify_queue_size", cfg.NotifyQueueSize),
	)
	return nil
}

func (s *Service) openRateLimitStore(ctx context.Context) (ratelimit.Store, error) {
	switch s.cfg.RateLimitBackend {
	case config.BackendRedis:
		st, err := ratelimit.DialRedis(ctx, s.cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect rate limit store: %w", err)
		}
		s.logger.Info(ctx, "using redis rate limit store", logger.String("addr", s.cfg.RedisAddr))
		return st, nil
	default:
		return ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(s.cfg.SweepInterval())), nil
	}
}

// Register attaches the API and document routes to mux. Start must have succeeded.
func (s *Service) Register(mux *http.ServeMux) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.api.Register(mux)
	swagger.Register(mux)
}

// Stop drains pending notifications and closes every component the service
// opened. A stopped service can be started again.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping launchit service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
		}
	}
	if s.ownsRLStore {
		if err := s.limiter.Close(); err != nil {
			s.logger.Error(ctx, "closing rate limit store", logger.Error(err))
		}
		s.rlStore = nil
		s.ownsRLStore = false
	}
	s.closeStore(ctx)
	s.limiter = nil
	s.pool = nil
	s.queue = nil
	s.api = nil

	s.started = false
	s.logger.Info(ctx, "launchit service stopped")
}

// closeStore closes and drops the datastore when the service opened it.
func (s *Service) closeStore(ctx context.Context) {
	if !s.ownsStore {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing datastore", logger.Error(err))
	}
	s.store = nil
	s.ownsStore = false
}

// GetStats returns service statistics for monitoring and refreshes the
// matching gauges.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":            s.started,
		"rate_limit_backend": s.cfg.RateLimitBackend,
		"notify_workers":     s.cfg.NotifyWorkerCount,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(context.Background())
	stats["notify_queue_length"] = queueLen
	metrics.UpdateQueueSize(queueLen)

	if mem, ok := s.rlStore.(*ratelimit.MemoryStore); ok {
		n := mem.Len()
		stats["rate_limit_entries"] = n
		metrics.UpdateRateLimitEntries(n)
	}
	return stats
}
