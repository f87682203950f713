package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackzampolin/easel/internal/artifacts"
	"github.com/jackzampolin/easel/internal/assemble"
	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/docstore"
	"github.com/jackzampolin/easel/internal/home"
	"github.com/jackzampolin/easel/internal/ledger"
	"github.com/jackzampolin/easel/internal/providers"
	"github.com/jackzampolin/easel/internal/store"
)

// testDeps bundles the collaborators behind a test engine so assertions can
// reach into them.
type testDeps struct {
	store     store.Store
	artifacts artifacts.Store
	planner   *providers.MockPlanner
	images    *providers.MockImageGenerator
	ledger    ledger.Ledger
	documents docstore.Store
}

type engineOption func(*testDeps)

func withLedger(l ledger.Ledger) engineOption {
	return func(d *testDeps) { d.ledger = l }
}

func withImages(m *providers.MockImageGenerator) engineOption {
	return func(d *testDeps) { d.images = m }
}

func withPlanner(p *providers.MockPlanner) engineOption {
	return func(d *testDeps) { d.planner = p }
}

func newTestEngine(t *testing.T, opts ...engineOption) (*Engine, *testDeps) {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to build home dir: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("failed to create home dir: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := &testDeps{
		store:     store.NewMemoryStore(),
		artifacts: artifacts.NewFSStore(h.ArtifactsDir()),
		planner:   &providers.MockPlanner{},
		images:    &providers.MockImageGenerator{},
		documents: docstore.NewFSStore(h),
	}
	for _, opt := range opts {
		opt(deps)
	}

	engine, err := New(Config{
		Store:      deps.store,
		Artifacts:  deps.artifacts,
		Planner:    deps.planner,
		Summarizer: &providers.MockSummarizer{Summary: "a small red fox"},
		Images:     deps.images,
		Assembler:  assemble.New(assemble.Config{Logger: logger}),
		Documents:  deps.documents,
		Ledger:     deps.ledger,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine, deps
}

// planSession plans a session and fails the test on error.
func planSession(t *testing.T, e *Engine, in *PlanInput) *book.Session {
	t.Helper()
	if in.Title == "" {
		in.Title = "Forest Trip"
	}
	if in.Theme == "" {
		in.Theme = "a fox exploring the forest"
	}
	if in.Kind == "" {
		in.Kind = book.KindColoring
	}
	if in.PageCount == 0 {
		in.PageCount = 3
	}
	sess, err := e.Plan(context.Background(), in)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	return sess
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
