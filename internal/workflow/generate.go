package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/providers"
)

// GenerateInput requests artwork for one page.
type GenerateInput struct {
	SessionID string
	Index     int

	// Wait makes the call synchronous: the caller blocks for the backend
	// call and receives the updated session. When false the caller gets
	// the pre-generation session immediately and the render continues in
	// the background.
	Wait bool

	// Force renders a fresh image even when the slot is already
	// populated. The write then expects the artifact observed at call
	// time instead of an empty slot.
	Force bool

	// WindowSize overrides the number of prior artifacts supplied for
	// continuity (bounded by MaxWindowSize).
	WindowSize int
}

// EditInput requests a variation of a page's current artwork.
type EditInput struct {
	SessionID string
	Index     int

	// PromptOverride replaces the page's stored prompt for this call
	// only. The stored prompt is untouched; callers wanting to keep it
	// also issue an UpdatePrompt.
	PromptOverride string

	WindowSize int
}

// Generate renders artwork for a page with no artifact (or any page, with
// Force) and persists it under the optimistic concurrency rule: the write
// lands only if the slot still matches what this call observed, otherwise
// the fresh render is discarded silently.
func (e *Engine) Generate(ctx context.Context, in *GenerateInput) (*book.Session, error) {
	sess, err := e.store.Load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	page := sess.Page(in.Index)
	if page == nil {
		return nil, fmt.Errorf("%w: %d (session has pages 0..%d)", book.ErrInvalidIndex, in.Index, sess.PageCount)
	}
	if page.Populated() && !in.Force {
		return nil, &book.ValidationError{
			Field:  "index",
			Reason: fmt.Sprintf("page %d already has artwork; use edit or force", in.Index),
		}
	}

	if err := e.chargeGeneration(ctx, sess); err != nil {
		return nil, err
	}

	// Expectation pins the slot state observed now; a concurrent writer
	// landing in between makes the CAS fail and this render is dropped.
	expect := ""
	if in.Force {
		expect = page.ArtifactRef
	}

	req := &providers.ImageRequest{
		Prompt:  e.buildFinalPrompt(sess, page),
		Context: e.contextWindow(sess, in.Index, in.WindowSize, nil),
		Print:   sess.Print,
	}

	if !in.Wait {
		// Fire-and-return: quota and validation errors surfaced above,
		// the render itself proceeds detached. No cancellation exists;
		// a stale result is discarded by the CAS.
		bg := context.WithoutCancel(ctx)
		go func() {
			if err := e.renderAndPersist(bg, sess.ID, in.Index, expect, req); err != nil {
				e.logger.Warn("background generation failed",
					"session", sess.ID, "page", in.Index, "error", err)
			}
		}()
		return sess, nil
	}

	if err := e.renderAndPersist(ctx, sess.ID, in.Index, expect, req); err != nil {
		return nil, err
	}
	return e.store.Load(ctx, in.SessionID)
}

// Edit renders a variation of the current artwork: the existing artifact is
// prepended to the context window as the primary visual anchor, so the new
// render is a variation rather than a fresh composition. On an empty slot it
// degrades to a plain generation.
func (e *Engine) Edit(ctx context.Context, in *EditInput) (*book.Session, error) {
	sess, err := e.store.Load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	page := sess.Page(in.Index)
	if page == nil {
		return nil, fmt.Errorf("%w: %d (session has pages 0..%d)", book.ErrInvalidIndex, in.Index, sess.PageCount)
	}

	if err := e.chargeGeneration(ctx, sess); err != nil {
		return nil, err
	}

	var primary *book.ContextImage
	if page.Populated() {
		data, err := e.artifacts.Get(page.ArtifactRef)
		if err != nil {
			return nil, fmt.Errorf("failed to read current artwork: %w", err)
		}
		primary = &book.ContextImage{Data: data, MediaType: page.MediaType}
	}

	prompt := page.Prompt
	if strings.TrimSpace(in.PromptOverride) != "" {
		prompt = in.PromptOverride
	}

	scratch := *page
	scratch.Prompt = prompt
	req := &providers.ImageRequest{
		Prompt:  e.buildFinalPrompt(sess, &scratch),
		Context: e.contextWindow(sess, in.Index, in.WindowSize, primary),
		Print:   sess.Print,
	}

	// Edit expects the artifact it anchored on: if someone replaced or
	// regenerated the page mid-call, this variation no longer applies.
	if err := e.renderAndPersist(ctx, sess.ID, in.Index, page.ArtifactRef, req); err != nil {
		return nil, err
	}
	return e.store.Load(ctx, in.SessionID)
}

// renderAndPersist performs one backend call and the guarded write. A failed
// CAS is not an error: the slot was filled (or changed) by a faster writer
// and this result is discarded.
func (e *Engine) renderAndPersist(ctx context.Context, sessionID string, index int, expect string, req *providers.ImageRequest) error {
	result, err := e.images.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	ref, err := e.artifacts.Put(sessionID, index, result.Data, result.MediaType)
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	swapped, err := e.store.CompareAndSwapArtifact(ctx, sessionID, index, expect, ref, result.MediaType)
	if err != nil {
		return fmt.Errorf("failed to persist artifact: %w", err)
	}
	if !swapped {
		e.logger.Debug("discarding superseded render", "session", sessionID, "page", index)
	}
	return nil
}

// chargeGeneration charges one page of credits for per-call sessions.
// Precharged sessions paid at planning and are never charged again.
func (e *Engine) chargeGeneration(ctx context.Context, sess *book.Session) error {
	if sess.Billing == book.BillingPrecharged {
		return nil
	}
	policy, err := book.PolicyFor(sess.Kind)
	if err != nil {
		return err
	}
	if _, err := e.ledger.Charge(ctx, sess.Account, policy.CreditsPerPage); err != nil {
		return err
	}
	return nil
}

// buildFinalPrompt appends the fixed style and print directives for the
// page's role to its prompt.
func (e *Engine) buildFinalPrompt(sess *book.Session, page *book.Page) string {
	policy, err := book.PolicyFor(sess.Kind)
	if err != nil {
		// Unknown kinds are rejected at planning; render the bare prompt.
		return page.Prompt
	}

	var b strings.Builder
	b.WriteString(page.Prompt)

	if page.Index == 0 {
		b.WriteString("\n\n")
		b.WriteString(policy.CoverDirectives)
	} else {
		b.WriteString("\n\n")
		b.WriteString(policy.InteriorDirectives)
	}

	if sess.Print != nil {
		fmt.Fprintf(&b, "\nThe image will be printed at %.3gx%.3g inches", sess.Print.WidthInches, sess.Print.HeightInches)
		if sess.Print.DPI > 0 {
			fmt.Fprintf(&b, " at %d DPI", sess.Print.DPI)
		}
		b.WriteString("; compose for that aspect ratio with full-bleed margins.")
	}

	return b.String()
}
