// Package workflow is the session-based generation and review engine. It
// drives plan -> generate/edit -> confirm/replace -> finalize transitions for
// all content kinds through one parametrized state machine, and owns the
// optimistic check-before-write rule that keeps racing writers from
// double-filling a page slot.
//
// The engine holds no session state in memory across suspension points:
// every decision re-reads the store, and every artifact write goes through
// the store's compare-and-swap. Foreground calls and the background
// completion worker therefore compose without any further coordination.
package workflow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/easel/internal/artifacts"
	"github.com/jackzampolin/easel/internal/assemble"
	"github.com/jackzampolin/easel/internal/docstore"
	"github.com/jackzampolin/easel/internal/ledger"
	"github.com/jackzampolin/easel/internal/providers"
	"github.com/jackzampolin/easel/internal/store"
)

// ErrGeneration indicates the image backend returned no usable image or an
// error. Foreground calls surface it; the background worker logs it and
// moves on.
var ErrGeneration = errors.New("image generation failed")

// DefaultWindowSize is how many prior artifacts accompany a generation call
// when the caller does not say otherwise.
const DefaultWindowSize = 3

// MaxWindowSize bounds the context window: the image backend accepts only a
// handful of inline references per call.
const MaxWindowSize = 3

// MaxContextImages is how many reference images a user may supply at
// planning time.
const MaxContextImages = 2

// Dispatcher enqueues a session for background completion. Implemented by
// the completion worker pool.
type Dispatcher interface {
	// Enqueue submits a session for a completion sweep. Returns false if
	// the queue is full; planning proceeds regardless.
	Enqueue(sessionID string) bool
}

// Config configures an Engine.
type Config struct {
	Store     store.Store
	Artifacts artifacts.Store
	Planner   providers.Planner

	// Summarizer is optional; without it reference images still anchor
	// generation but do not enrich planning.
	Summarizer providers.Summarizer

	Images    providers.ImageGenerator
	Assembler *assemble.Assembler
	Documents docstore.Store

	// Ledger defaults to ledger.Unlimited.
	Ledger ledger.Ledger

	// WindowSize defaults to DefaultWindowSize, capped at MaxWindowSize.
	WindowSize int

	Logger *slog.Logger
}

// Engine orchestrates page generation for sessions.
type Engine struct {
	store      store.Store
	artifacts  artifacts.Store
	planner    providers.Planner
	summarizer providers.Summarizer
	images     providers.ImageGenerator
	assembler  *assemble.Assembler
	documents  docstore.Store
	ledger     ledger.Ledger
	windowSize int
	logger     *slog.Logger

	// completions is set after construction; the worker pool wraps the
	// engine, so it cannot be a constructor dependency.
	completions Dispatcher
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("workflow engine requires a session store")
	}
	if cfg.Artifacts == nil {
		return nil, fmt.Errorf("workflow engine requires an artifact store")
	}
	if cfg.Planner == nil {
		return nil, fmt.Errorf("workflow engine requires a planner")
	}
	if cfg.Images == nil {
		return nil, fmt.Errorf("workflow engine requires an image generator")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	led := cfg.Ledger
	if led == nil {
		led = ledger.Unlimited{}
	}
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if windowSize > MaxWindowSize {
		windowSize = MaxWindowSize
	}

	return &Engine{
		store:      cfg.Store,
		artifacts:  cfg.Artifacts,
		planner:    cfg.Planner,
		summarizer: cfg.Summarizer,
		images:     cfg.Images,
		assembler:  cfg.Assembler,
		documents:  cfg.Documents,
		ledger:     led,
		windowSize: windowSize,
		logger:     logger.With("component", "workflow"),
	}, nil
}

// SetDispatcher wires the background completion pool. Must be called before
// any Plan request asks for background completion.
func (e *Engine) SetDispatcher(d Dispatcher) { e.completions = d }
