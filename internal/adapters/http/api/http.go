// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/mq/queue"
	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/agent"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/internal/ratelimit"
	"github.com/nextwave678/launchit/pkg/logger"
)

const (
	defaultMaxEvents = 10000
	maxBodyBytes     = 1 << 20
)

// Notifications accepts owner notifications for async delivery.
type Notifications interface {
	Enqueue(ctx context.Context, it queue.Item) error
}

// Dependencies required by HTTP handlers.
type Dependencies struct {
	Store    repository.Store
	Limiter  *ratelimit.Limiter
	Policies ratelimit.Policies
	Verifier *auth.Verifier

	// Notifications may be nil, which disables owner notifications.
	Notifications Notifications
	// Completer may be nil, which makes agent routes answer 503.
	Completer agent.Completer
}

// Server wires HTTP routes for the business API.
type Server struct {
	store         repository.Store
	limiter       *ratelimit.Limiter
	policies      ratelimit.Policies
	verifier      *auth.Verifier
	notifications Notifications
	completer     agent.Completer

	maxEvents int
	siteURL   string
	now       func() time.Time
	logger    logger.Logger

	health    *HealthHandler
	track     *trackHandler
	analytics *analyticsHandler
	leads     *leadsHandler
	projects  *projectsHandler
	agents    *agentsHandler
	campaigns *campaignsHandler
	pages     *pagesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		store:         deps.Store,
		limiter:       deps.Limiter,
		policies:      deps.Policies,
		verifier:      deps.Verifier,
		notifications: deps.Notifications,
		completer:     deps.Completer,
		maxEvents:     defaultMaxEvents,
		now:           time.Now,
		logger:        logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.health = NewHealthHandler()
	s.track = &trackHandler{s: s}
	s.analytics = &analyticsHandler{s: s}
	s.leads = &leadsHandler{s: s}
	s.projects = &projectsHandler{s: s}
	s.agents = &agentsHandler{s: s}
	s.campaigns = &campaignsHandler{s: s}
	s.pages = &pagesHandler{s: s}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	ip := clientIP

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))

	mux.HandleFunc("POST /api/analytics/track", MetricsMiddleware(
		s.Limited(s.policies.Analytics, ip, s.track.HandleTrack), "analytics_track"))
	mux.HandleFunc("GET /api/analytics", MetricsMiddleware(
		s.Authenticated(s.analytics.HandleReport), "analytics"))

	mux.HandleFunc("POST /api/leads/capture", MetricsMiddleware(
		s.Limited(s.policies.Lead, ip, s.leads.HandleCapture), "leads_capture"))
	mux.HandleFunc("GET /api/leads", MetricsMiddleware(s.Authenticated(s.leads.HandleList), "leads"))
	mux.HandleFunc("PATCH /api/leads", MetricsMiddleware(s.Authenticated(s.leads.HandleUpdate), "leads"))
	mux.HandleFunc("DELETE /api/leads", MetricsMiddleware(s.Authenticated(s.leads.HandleDelete), "leads"))
	mux.HandleFunc("GET /api/leads/export", MetricsMiddleware(s.Authenticated(s.leads.HandleExport), "leads_export"))

	mux.HandleFunc("GET /api/projects", MetricsMiddleware(s.Authenticated(s.projects.HandleList), "projects"))
	mux.HandleFunc("POST /api/projects", MetricsMiddleware(s.Authenticated(s.projects.HandleCreate), "projects"))
	mux.HandleFunc("GET /api/projects/{id}", MetricsMiddleware(s.Authenticated(s.projects.HandleGet), "project"))
	mux.HandleFunc("PATCH /api/projects/{id}", MetricsMiddleware(s.Authenticated(s.projects.HandleUpdate), "project"))
	mux.HandleFunc("DELETE /api/projects/{id}", MetricsMiddleware(s.Authenticated(s.projects.HandleDelete), "project"))

	mux.HandleFunc("GET /api/campaigns", MetricsMiddleware(s.Authenticated(s.campaigns.HandleList), "campaigns"))
	mux.HandleFunc("POST /api/campaigns", MetricsMiddleware(s.Authenticated(s.campaigns.HandleCreate), "campaigns"))
	mux.HandleFunc("PATCH /api/campaigns", MetricsMiddleware(s.Authenticated(s.campaigns.HandleUpdate), "campaigns"))
	mux.HandleFunc("DELETE /api/campaigns", MetricsMiddleware(s.Authenticated(s.campaigns.HandleDelete), "campaigns"))

	mux.HandleFunc("GET /api/landing-pages", MetricsMiddleware(s.Authenticated(s.pages.HandleList), "landing_pages"))
	mux.HandleFunc("POST /api/landing-pages/{id}/publish", MetricsMiddleware(
		s.Authenticated(s.pages.HandlePublish), "landing_pages"))
	mux.HandleFunc("POST /api/landing-pages/{id}/unpublish", MetricsMiddleware(
		s.Authenticated(s.pages.HandleUnpublish), "landing_pages"))
	mux.HandleFunc("DELETE /api/landing-pages/{id}", MetricsMiddleware(
		s.Authenticated(s.pages.HandleDelete), "landing_pages"))
	mux.HandleFunc("GET /l/{slug}", MetricsMiddleware(s.pages.HandleServe, "landing_page_view"))

	mux.HandleFunc("GET /api/agents/runs", MetricsMiddleware(s.Authenticated(s.agents.HandleListRuns), "agent_runs"))
	mux.HandleFunc("POST /api/agents/{kind}", MetricsMiddleware(
		s.Authenticated(s.agents.HandleRun), "agents"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rateLimitedResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ResetAt string `json:"reset_at"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = publicMessage(err, status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err, logs server-side failures and writes the error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("method", r.Method),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body of bounded size into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// clientIP identifies the caller for IP-keyed limits: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// notFoundAs maps repository.ErrNotFound to the API kind.
func notFoundAs(op string, err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return WrapKind(op, ErrNotFound, errors.New(msg))
	}
	return WrapKind(op, ErrInternal, err)
}

var errProjectNotFound = errors.New("project not found")

// ownedProject loads id when the caller owns it. Store failures and foreign
// projects both read as not found.
func (s *Server) ownedProject(ctx context.Context, id string) (model.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error(ctx, "project lookup failed", logger.String("project_id", id), logger.Error(err))
		}
		return model.Project{}, errProjectNotFound
	}
	if p.UserID != auth.UserID(ctx) {
		return model.Project{}, errProjectNotFound
	}
	return p, nil
}
