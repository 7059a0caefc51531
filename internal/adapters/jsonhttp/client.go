// Package jsonhttp posts JSON to third-party APIs behind a circuit breaker.
package jsonhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultTimeout     = 30 * time.Second
	maxErrorBodyBytes  = 512
	breakerMinRequests = 5
	breakerFailRatio   = 0.6
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client sends JSON requests. A zero Client is not usable; call New.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	timeout     time.Duration
	httpClient  *http.Client
	openTimeout time.Duration
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.openTimeout = d
		}
	}
}

// New creates a client whose breaker is identified by name.
func New(name string, opts ...Option) *Client {
	s := settings{timeout: defaultTimeout, openTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&s)
	}
	hc := s.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: s.timeout}
	}

	return &Client{
		http: hc,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     s.openTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				ratio := float64(c.TotalFailures) / float64(c.Requests)
				return c.Requests >= breakerMinRequests && ratio >= breakerFailRatio
			},
			IsSuccessful: func(err error) bool {
				// caller mistakes and cancellations say nothing about the remote's health
				var se *StatusError
				if errors.As(err, &se) {
					return se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// Post sends body as JSON to url and decodes a JSON response into out when out is non-nil.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	res, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, url, headers, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: %w", c.breaker.Name(), ErrCircuitOpen)
		}
		return err
	}

	raw, _ := res.([]byte)
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// State returns the breaker state name.
func (c *Client) State() string {
	return c.breaker.State().String()
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBodyBytes {
			raw = raw[:maxErrorBodyBytes]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
