// Package store persists sessions and their pages. The SQLite implementation
// is the sole durability boundary for the workflow engine; the MemoryStore
// mirrors its semantics for unit tests.
//
// The store does not serialize concurrent generation flows. Writers that may
// race on a page's artifact slot must go through CompareAndSwapArtifact,
// which applies its predicate and write inside one transaction.
package store

import (
	"context"

	"github.com/jackzampolin/easel/internal/book"
)

// Store abstracts session persistence.
type Store interface {
	// Create persists a new session with all of its pages and context
	// images. The session's Version is initialized by the store.
	Create(ctx context.Context, s *book.Session) error

	// Load returns the session by id, or book.ErrSessionNotFound.
	Load(ctx context.Context, id string) (*book.Session, error)

	// Page returns a single page with bounds checking
	// (0 <= index <= pageCount, else book.ErrInvalidIndex).
	Page(ctx context.Context, sessionID string, index int) (*book.Page, error)

	// SetPrompt overwrites a page's prompt text. Artifact and confirmed
	// flag are untouched.
	SetPrompt(ctx context.Context, sessionID string, index int, prompt string) error

	// SetText overwrites a page's caption/body text.
	SetText(ctx context.Context, sessionID string, index int, text string) error

	// SetConfirmed sets a page's review flag.
	SetConfirmed(ctx context.Context, sessionID string, index int, confirmed bool) error

	// ReplaceArtifact writes an artifact reference unconditionally.
	// Explicit user action always wins; in-flight generation writes fail
	// their CAS predicate once this lands.
	ReplaceArtifact(ctx context.Context, sessionID string, index int, ref, mediaType string) error

	// CompareAndSwapArtifact writes ref/mediaType only if the page's
	// current artifact reference equals expect (empty string = empty
	// slot). Returns false, nil when the predicate fails; the caller
	// discards its result silently.
	CompareAndSwapArtifact(ctx context.Context, sessionID string, index int, expect, ref, mediaType string) (bool, error)

	// Close releases store resources.
	Close() error
}
