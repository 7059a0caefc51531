// Package llm implements agent.Completer against the Anthropic Messages API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/jsonhttp"
	"github.com/nextwave678/launchit/internal/domain/agent"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("llm api key not configured")
	ErrEmptyResponse = errors.New("llm returned no text")
)

// Client calls the Messages API.
type Client struct {
	http   *jsonhttp.Client
	url    string
	apiKey string
	model  string
}

var _ agent.Completer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTP replaces the JSON client.
func WithHTTP(c *jsonhttp.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New creates a client. timeout bounds each request.
func New(url, apiKey, model string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{url: url, apiKey: apiKey, model: model}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = jsonhttp.New("llm", jsonhttp.WithTimeout(timeout))
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Complete runs one completion and returns the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, p agent.Prompt) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var out messagesResponse
	err := c.http.Post(ctx, c.url,
		map[string]string{"x-api-key": c.apiKey, "anthropic-version": apiVersion},
		messagesRequest{
			Model:       c.model,
			MaxTokens:   maxTokens,
			System:      p.System,
			Temperature: p.Temperature,
			Messages:    []message{{Role: "user", Content: p.User}},
		},
		&out,
	)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
