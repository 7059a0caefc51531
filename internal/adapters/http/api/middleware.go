package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/ratelimit"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		statusCodeStr := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr, time.Since(start).Seconds())
		if wrapped.statusCode >= http.StatusBadRequest {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, getErrorType(wrapped.statusCode))
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "server_error"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode == http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "client_error"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Authenticated rejects requests without a valid bearer token and stores
// the caller identity in the request context.
func (s *Server) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.auth"
		claims, err := s.verifier.FromRequest(r)
		if err != nil {
			s.fail(w, r, WrapKind(op, ErrUnauthorized, err))
			return
		}
		ctx := auth.WithUser(r.Context(), claims.Subject, claims.Email)
		next(w, r.WithContext(ctx))
	}
}

// Limited counts the request against p for the identity derived from r.
// Rejected requests get a 429 carrying the reset time.
func (s *Server) Limited(p ratelimit.Policy, identity func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(w, r, p, identity(r)) {
			return
		}
		next(w, r)
	}
}

// allow counts one request by id against p and sets the rate limit headers.
// When the request is over the limit it writes the 429 and returns false.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, p ratelimit.Policy, id string) bool {
	d := s.limiter.Check(r.Context(), p, id)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

	if d.Allowed {
		return true
	}
	h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter(s.now()).Seconds())))
	s.logger.Debug(r.Context(), "rate limited",
		logger.String("policy", p.Name),
		logger.String("identity", id),
		logger.Time("reset_at", d.ResetAt),
	)
	writeJSON(w, http.StatusTooManyRequests, rateLimitedResponse{
		Code:    "rate_limited",
		Message: "Rate limit exceeded. Please try again later.",
		ResetAt: d.ResetAt.UTC().Format(time.RFC3339),
	})
	return false
}
