package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextwave678/launchit/pkg/logger"
)

// HTTPClient wraps http.Client with a bearer token.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func classify(status int, err error) Outcome {
	switch {
	case err != nil:
		return Failed
	case status == http.StatusOK:
		return Accepted
	case status == http.StatusTooManyRequests:
		return Limited
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return Rejected
	default:
		return Failed
	}
}

// submitAll posts every item to path with cfg.Workers goroutines and
// returns one outcome per item, index aligned with items.
func submitAll[T any](ctx context.Context, c *HTTPClient, cfg *Config, path string, items []T) []Outcome {
	log := logger.Get().Named("loadgen")
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}
	// items never handed out because ctx ended stay Failed
	for i := range outcomes {
		outcomes[i] = Failed
	}

	var (
		done       atomic.Int64
		lastReport atomic.Int64
		wg         sync.WaitGroup
	)
	idx := make(chan int, cfg.Workers*2)

	for range min(cfg.Workers, len(items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				status, err := c.do(ctx, http.MethodPost, path, items[i], nil)
				outcomes[i] = classify(status, err)

				n := done.Add(1)
				now := time.Now().Unix()
				if cfg.Verbose && lastReport.Swap(now) != now {
					log.Info(ctx, "progress", logger.String("path", path),
						logger.Int64("done", n), logger.Int("total", len(items)))
				}
			}
		}()
	}

	go func() {
		defer close(idx)
		for i := range items {
			select {
			case <-ctx.Done():
				return
			case idx <- i:
			}
		}
	}()

	wg.Wait()
	return outcomes
}
