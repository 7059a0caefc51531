package api

import (
	"errors"
	"net/http"
)

// Sentinel kinds for API errors. Each maps to one status code.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("missing prerequisite")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream failure")
	ErrUnavailable  = errors.New("service unavailable")
	ErrLLMDown      = errors.New("language model unavailable")
	ErrInternal     = errors.New("internal error")
)

// KindError tags err with an API kind and the operation that failed.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind tags err with kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind returns a bare kind error for op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

type kindMapping struct {
	kind   error
	status int
	code   string
}

var kindTable = []kindMapping{ //nolint:gochecknoglobals // read-only lookup
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrPrecondition, http.StatusBadRequest, "missing_prerequisite"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{ErrUpstream, http.StatusBadGateway, "upstream_error"},
	{ErrLLMDown, http.StatusServiceUnavailable, "llm_unavailable"},
	{ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// classify returns the status and code for err; unknown errors are internal.
func classify(err error) (int, string) {
	for _, m := range kindTable {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// publicMessage is the text shown to clients. Server errors never leak their cause.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	var ke *KindError
	if errors.As(err, &ke) {
		if ke.Err != nil {
			return ke.Err.Error()
		}
		return ke.Kind.Error()
	}
	return err.Error()
}
