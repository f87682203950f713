// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/easel/internal/completion"
	"github.com/jackzampolin/easel/internal/config"
	"github.com/jackzampolin/easel/internal/docstore"
	"github.com/jackzampolin/easel/internal/home"
	"github.com/jackzampolin/easel/internal/store"
	"github.com/jackzampolin/easel/internal/workflow"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Engine      *workflow.Engine
	Store       store.Store
	Documents   docstore.Store
	Completions *completion.Pool
	Config      *config.Manager
	Logger      *slog.Logger
	Home        *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// EngineFrom extracts the workflow engine from context.
func EngineFrom(ctx context.Context) *workflow.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Engine
	}
	return nil
}

// StoreFrom extracts the session store from context.
func StoreFrom(ctx context.Context) store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// DocumentsFrom extracts the exported document store from context.
func DocumentsFrom(ctx context.Context) docstore.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Documents
	}
	return nil
}

// CompletionsFrom extracts the completion pool from context.
func CompletionsFrom(ctx context.Context) *completion.Pool {
	if s := ServicesFrom(ctx); s != nil {
		return s.Completions
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
