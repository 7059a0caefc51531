package api

import (
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxEvents bounds the events read for one analytics report.
func WithMaxEvents(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithSiteURL sets the public base URL baked into generated landing pages.
func WithSiteURL(u string) Option {
	return func(s *Server) { s.siteURL = u }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
