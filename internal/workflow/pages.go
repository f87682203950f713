package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackzampolin/easel/internal/book"
)

// UpdatePrompt overwrites a page's prompt text. The page's artifact and
// confirmed flag are untouched.
func (e *Engine) UpdatePrompt(ctx context.Context, sessionID string, index int, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return &book.ValidationError{Field: "prompt", Reason: "must not be empty"}
	}
	return e.store.SetPrompt(ctx, sessionID, index, prompt)
}

// UpdateText overwrites a page's caption/body text, independent of its
// prompt and artifact.
func (e *Engine) UpdateText(ctx context.Context, sessionID string, index int, text string) error {
	return e.store.SetText(ctx, sessionID, index, text)
}

// Confirm sets a page's review flag. Pure metadata: no generation, no effect
// on finalize, idempotent for a repeated value.
func (e *Engine) Confirm(ctx context.Context, sessionID string, index int, confirmed bool) error {
	return e.store.SetConfirmed(ctx, sessionID, index, confirmed)
}

// Replace stores caller-supplied image bytes for a page with no model call.
// It persists unconditionally: explicit user action always wins, and any
// in-flight generation for the slot subsequently fails its CAS predicate.
func (e *Engine) Replace(ctx context.Context, sessionID string, index int, data []byte, mediaType string) (*book.Session, error) {
	if len(data) == 0 {
		return nil, &book.ValidationError{Field: "image", Reason: "must not be empty"}
	}
	if mediaType == "" {
		mediaType = "image/png"
	}

	// Bounds and existence first so a bad index never writes bytes.
	if _, err := e.store.Page(ctx, sessionID, index); err != nil {
		return nil, err
	}

	ref, err := e.artifacts.Put(sessionID, index, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to store uploaded image: %w", err)
	}
	if err := e.store.ReplaceArtifact(ctx, sessionID, index, ref, mediaType); err != nil {
		return nil, err
	}

	e.logger.Info("page artwork replaced by upload", "session", sessionID, "page", index)
	return e.store.Load(ctx, sessionID)
}
