// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case koanf keys, one per tunable.
// - New() returns the defaults; Load layers file and env on top of them.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Rate limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SiteURL is the public base URL used in generated landing pages and emails.
	SiteURL string `koanf:"site_url"`

	// DatabasePath is the SQLite file holding projects, events, leads and agent runs.
	DatabasePath string `koanf:"database_path"`

	// JWTSecret signs and verifies bearer tokens (HS256).
	JWTSecret string `koanf:"jwt_secret"`

	// RateLimitBackend is memory (process-local) or redis (shared counters).
	RateLimitBackend string `koanf:"rate_limit_backend"`
	RedisAddr        string `koanf:"redis_addr"`

	// RateLimitFailOpen admits requests when the shared store is unreachable.
	RateLimitFailOpen bool `koanf:"rate_limit_fail_open"`

	// RateLimitSweepIntervalSec controls how often expired entries are removed.
	RateLimitSweepIntervalSec int `koanf:"rate_limit_sweep_interval_sec"`

	AgentLimit         int `koanf:"agent_limit"`
	AgentWindowSec     int `koanf:"agent_window_sec"`
	LeadLimit          int `koanf:"lead_limit"`
	LeadWindowSec      int `koanf:"lead_window_sec"`
	AnalyticsLimit     int `koanf:"analytics_limit"`
	AnalyticsWindowSec int `koanf:"analytics_window_sec"`

	// NotifyQueueSize bounds the lead notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkerCount sets the number of notification workers.
	NotifyWorkerCount int `koanf:"notify_worker_count"`

	// Email API. An empty EmailAPIKey selects the log notifier.
	EmailAPIURL string `koanf:"email_api_url"`
	EmailAPIKey string `koanf:"email_api_key"`
	EmailFrom   string `koanf:"email_from"`

	// LLM API. An empty LLMAPIKey disables the agent endpoints.
	LLMAPIURL     string `koanf:"llm_api_url"`
	LLMAPIKey     string `koanf:"llm_api_key"`
	LLMModel      string `koanf:"llm_model"`
	LLMTimeoutSec int    `koanf:"llm_timeout_sec"`

	// MaxEventsPerReport caps the events loaded for one analytics summary.
	MaxEventsPerReport int `koanf:"max_events_per_report"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":8080",
		SiteURL:                   "http://localhost:8080",
		DatabasePath:              "launchit.db",
		RateLimitBackend:          BackendMemory,
		RedisAddr:                 "",
		RateLimitFailOpen:         true,
		RateLimitSweepIntervalSec: 300,
		AgentLimit:                10,
		AgentWindowSec:            3600,
		LeadLimit:                 100,
		LeadWindowSec:             3600,
		AnalyticsLimit:            1000,
		AnalyticsWindowSec:        3600,
		NotifyQueueSize:           1024,
		NotifyWorkerCount:         2,
		EmailAPIURL:               "https://api.resend.com/emails",
		EmailFrom:                 "LaunchIt <noreply@launchit.app>",
		LLMAPIURL:                 "https://api.anthropic.com/v1/messages",
		LLMModel:                  "claude-sonnet-4-20250514",
		LLMTimeoutSec:             120,
		MaxEventsPerReport:        10_000,
	}
}

// SweepInterval returns the rate limit sweep interval.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RateLimitSweepIntervalSec) * time.Second
}

// LLMTimeout returns the per-request LLM timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrEmptyAddr
	}
	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.RateLimitBackend)
	}
	positive := []struct {
		name string
		v    int
	}{
		{"rate_limit_sweep_interval_sec", c.RateLimitSweepIntervalSec},
		{"agent_limit", c.AgentLimit},
		{"agent_window_sec", c.AgentWindowSec},
		{"lead_limit", c.LeadLimit},
		{"lead_window_sec", c.LeadWindowSec},
		{"analytics_limit", c.AnalyticsLimit},
		{"analytics_window_sec", c.AnalyticsWindowSec},
		{"notify_queue_size", c.NotifyQueueSize},
		{"notify_worker_count", c.NotifyWorkerCount},
		{"llm_timeout_sec", c.LLMTimeoutSec},
		{"max_events_per_report", c.MaxEventsPerReport},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s is %d", ErrNotPositive, p.name, p.v)
		}
	}
	return nil
}
