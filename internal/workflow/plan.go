package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/providers"
)

// PlanInput describes a new session.
type PlanInput struct {
	Title     string
	Theme     string
	Kind      book.Kind
	PageCount int

	// Billing defaults to per-call.
	Billing book.BillingMode

	// Account is charged for generations; empty means the default account.
	Account string

	// Print, when set, fixes the output page size at finalize.
	Print *book.PrintSpec

	// Optional planning options forwarded to the planner.
	AgeRange        string
	Difficulty      string
	StyleHints      string
	FocusCharacters []string
	Avoid           []string

	// ContextImages are up to two standing reference images.
	ContextImages []book.ContextImage

	// Background enqueues a completion sweep after planning so empty
	// slots fill without further caller action.
	Background bool
}

// Plan invokes the planning backend once, persists a new session with every
// page in the planned state, and optionally enqueues background completion.
// The caller is never blocked on generation.
func (e *Engine) Plan(ctx context.Context, in *PlanInput) (*book.Session, error) {
	policy, err := book.PolicyFor(in.Kind)
	if err != nil {
		return nil, &book.ValidationError{Field: "kind", Reason: err.Error()}
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, &book.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.Theme) == "" {
		return nil, &book.ValidationError{Field: "theme", Reason: "must not be empty"}
	}
	if in.PageCount < 1 || in.PageCount > policy.MaxPages {
		return nil, &book.ValidationError{
			Field:  "page_count",
			Reason: fmt.Sprintf("must be between 1 and %d for %s", policy.MaxPages, in.Kind),
		}
	}
	if in.Print != nil {
		if in.Print.WidthInches <= 0 || in.Print.HeightInches <= 0 {
			return nil, &book.ValidationError{
				Field:  "print",
				Reason: "width and height must be positive inches",
			}
		}
		if in.Print.DPI < 0 {
			return nil, &book.ValidationError{Field: "print.dpi", Reason: "must not be negative"}
		}
		switch in.Print.Fit {
		case "", book.FitContain, book.FitCover:
		default:
			return nil, &book.ValidationError{
				Field:  "print.fit",
				Reason: fmt.Sprintf("unknown fit mode %q", in.Print.Fit),
			}
		}
	}
	if len(in.ContextImages) > MaxContextImages {
		return nil, &book.ValidationError{
			Field:  "context_images",
			Reason: fmt.Sprintf("at most %d reference images", MaxContextImages),
		}
	}

	billing := in.Billing
	if billing == "" {
		billing = book.BillingPerCall
	}
	if billing != book.BillingPerCall && billing != book.BillingPrecharged {
		return nil, &book.ValidationError{Field: "billing", Reason: fmt.Sprintf("unknown mode %q", billing)}
	}

	// Precharged sessions pay for the cover plus all interior pages now;
	// generation calls are free afterwards.
	if billing == book.BillingPrecharged {
		total := policy.CreditsPerPage * int64(in.PageCount+1)
		if _, err := e.ledger.Charge(ctx, in.Account, total); err != nil {
			return nil, err
		}
	}

	var refSummary string
	if e.summarizer != nil && len(in.ContextImages) > 0 {
		// Best-effort: an empty summary just plans without it.
		refSummary, _ = e.summarizer.Describe(ctx, in.ContextImages)
	}

	plan, err := e.planner.Plan(ctx, &providers.PlanRequest{
		Title:            in.Title,
		Theme:            in.Theme,
		PageCount:        in.PageCount,
		Kind:             in.Kind,
		Captions:         policy.Captions,
		AgeRange:         in.AgeRange,
		Difficulty:       in.Difficulty,
		StyleHints:       in.StyleHints,
		FocusCharacters:  in.FocusCharacters,
		Avoid:            in.Avoid,
		ReferenceSummary: refSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	// The engine does not trust planner implementations to self-check.
	if err := providers.CheckPlanShape(plan, in.PageCount); err != nil {
		return nil, err
	}

	sess := &book.Session{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Theme:         in.Theme,
		Kind:          in.Kind,
		PageCount:     in.PageCount,
		Billing:       billing,
		Account:       in.Account,
		Print:         in.Print,
		ContextImages: in.ContextImages,
		Pages:         make([]book.Page, 0, in.PageCount+1),
	}
	sess.Pages = append(sess.Pages, book.Page{Index: 0, Prompt: plan.CoverPrompt})
	for _, item := range plan.Items {
		sess.Pages = append(sess.Pages, book.Page{
			Index:  item.Index,
			Prompt: item.Prompt,
			Text:   item.Text,
		})
	}

	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	e.logger.Info("session planned",
		"session", sess.ID, "kind", sess.Kind, "pages", sess.PageCount, "billing", sess.Billing)

	if in.Background {
		if e.completions == nil {
			e.logger.Warn("background completion requested but no dispatcher wired", "session", sess.ID)
		} else if !e.completions.Enqueue(sess.ID) {
			e.logger.Warn("completion queue full, session left for foreground generation", "session", sess.ID)
		}
	}

	return sess, nil
}

// Session loads current session state.
func (e *Engine) Session(ctx context.Context, id string) (*book.Session, error) {
	return e.store.Load(ctx, id)
}
