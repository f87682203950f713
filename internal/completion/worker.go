// Package completion runs background sweeps that fill still-empty page
// slots after planning. Dispatch goes through a bounded pool so outbound
// backend concurrency stays bounded no matter how many sessions are planned.
package completion

import (
	"context"
	"log/slog"
	"sync"
)

// Sweeper performs one best-effort completion pass over a session.
// Implemented by the workflow engine.
type Sweeper interface {
	Sweep(ctx context.Context, sessionID string)
}

// Config configures the completion pool.
type Config struct {
	Sweeper Sweeper

	// Workers is the number of concurrent sweeps (default 2).
	Workers int

	// QueueSize is the pending-session buffer (default 32).
	QueueSize int

	Logger *slog.Logger
}

// Pool is a bounded worker pool of completion sweeps. It owns its queue;
// Start blocks until the context is cancelled.
type Pool struct {
	sweeper Sweeper
	workers int
	queue   chan string
	logger  *slog.Logger
}

// New creates a completion pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		sweeper: cfg.Sweeper,
		workers: workers,
		queue:   make(chan string, queueSize),
		logger:  logger.With("component", "completion"),
	}
}

// Start runs the pool's workers. Blocks until ctx is cancelled; run in a
// goroutine.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("completion pool started", "workers", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case sessionID := <-p.queue:
					p.sweeper.Sweep(ctx, sessionID)
				}
			}
		}()
	}

	wg.Wait()
	p.logger.Info("completion pool stopped")
}

// Enqueue submits a session for a sweep. Returns false when the queue is
// full; the session is then left for foreground generation.
func (p *Pool) Enqueue(sessionID string) bool {
	select {
	case p.queue <- sessionID:
		return true
	default:
		return false
	}
}

// QueueDepth returns the number of sessions waiting for a sweep.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}
