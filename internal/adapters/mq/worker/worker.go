// Package worker delivers queued lead notifications.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/mq/queue"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

const (
	defaultWorkerCount     = 2
	defaultDeliveryTimeout = 10 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// Notifier delivers one notification.
type Notifier interface {
	Notify(ctx context.Context, n queue.Item) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Worker processes notifications until its source is exhausted.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown waits for Run to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	notifier Notifier
	name     string
	timeout  time.Duration

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, notifier Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		notifier: notifier,
		name:     "worker",
		timeout:  defaultDeliveryTimeout,
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. Items already queued are delivered after the
// queue is closed; canceling ctx abandons them.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for it := range w.queue.Dequeue(ctx) {
		if err := w.deliver(ctx, it); err != nil {
			w.logger.Error(ctx, "notification delivery failed",
				logger.String("notification_id", it.ID),
				logger.String("project_id", it.Lead.ProjectID),
				logger.Error(err),
			)
		}
	}
}

// Shutdown waits for the worker loop to exit or ctx to expire.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, it queue.Item) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.notifier.Notify(dctx, it)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	metrics.RecordNotification(outcome, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("notify %s: %w", it.To, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, notifier, wopts...)
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return firstErr
}
