package completion

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordingSweeper records swept sessions; Block, when set, holds every
// sweep until released.
type recordingSweeper struct {
	mu    sync.Mutex
	swept []string
	block chan struct{}
}

func (s *recordingSweeper) Sweep(ctx context.Context, sessionID string) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return
		}
	}
	s.mu.Lock()
	s.swept = append(s.swept, sessionID)
	s.mu.Unlock()
}

func (s *recordingSweeper) sweptIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.swept...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolSweepsEnqueuedSessions(t *testing.T) {
	sweeper := &recordingSweeper{}
	pool := New(Config{Sweeper: sweeper, Workers: 2, QueueSize: 8, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pool.Start(ctx)
	}()

	for _, id := range []string{"a", "b", "c"} {
		if !pool.Enqueue(id) {
			t.Fatalf("enqueue of %q rejected", id)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sweeper.sweptIDs()) == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := sweeper.sweptIDs(); len(got) != 3 {
		t.Fatalf("expected 3 sweeps, got %v", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestPoolEnqueueRejectsWhenFull(t *testing.T) {
	sweeper := &recordingSweeper{block: make(chan struct{})}
	pool := New(Config{Sweeper: sweeper, Workers: 1, QueueSize: 1, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pool.Start(ctx)
	}()

	// First submit is picked up by the blocked worker, second sits in the
	// queue; eventually a submit must be refused rather than block.
	accepted := 0
	for i := 0; i < 4; i++ {
		if pool.Enqueue("s") {
			accepted++
		}
	}
	if accepted == 4 {
		t.Error("a full queue must reject submissions")
	}

	close(sweeper.block)
	cancel()
	<-done
}

func TestPoolDefaults(t *testing.T) {
	pool := New(Config{Sweeper: &recordingSweeper{}, Logger: testLogger()})
	if pool.workers != 2 {
		t.Errorf("expected default 2 workers, got %d", pool.workers)
	}
	if cap(pool.queue) != 32 {
		t.Errorf("expected default queue size 32, got %d", cap(pool.queue))
	}
}
