// Package providers defines the external model backends the workflow engine
// consumes: text planning, reference-image summarizing, and image generation.
// The engine performs no retries of its own; transient backend failures are
// surfaced and require a caller-initiated re-generation.
package providers

import (
	"context"
	"errors"

	"github.com/jackzampolin/easel/internal/book"
)

// ErrPlanShape indicates the planning backend returned the wrong number of
// items or a malformed structure. Fatal, surfaced, never retried.
var ErrPlanShape = errors.New("planner returned malformed plan")

// ErrNoImage indicates the image backend returned no usable image.
var ErrNoImage = errors.New("backend returned no image")

// PlanRequest carries everything the planner needs to produce a cover prompt
// plus exactly PageCount interior prompts.
type PlanRequest struct {
	Title     string
	Theme     string
	PageCount int
	Kind      book.Kind

	// Captions asks the planner for per-page body text (storybook, poems).
	Captions bool

	// Optional per-type planning options.
	AgeRange        string
	Difficulty      string
	StyleHints      string
	FocusCharacters []string
	Avoid           []string

	// ReferenceSummary is a short textual description of the user's
	// reference images, produced by the Summarizer.
	ReferenceSummary string
}

// Planner produces a plan seeding every page prompt of a session. It must
// return exactly PageCount interior items plus one cover prompt, or
// ErrPlanShape.
type Planner interface {
	Plan(ctx context.Context, req *PlanRequest) (*book.Plan, error)
}

// Summarizer describes up to two reference images in a short text. It is
// best-effort: implementations return an empty string on failure rather than
// an error.
type Summarizer interface {
	Describe(ctx context.Context, images []book.ContextImage) (string, error)
}

// ImageRequest is one generation call. Context carries the bounded window of
// prior artifacts plus the session's standing reference images, in priority
// order.
type ImageRequest struct {
	Prompt  string
	Context []book.ContextImage

	// Print, when set, hints the backend toward the target aspect ratio.
	Print *book.PrintSpec
}

// ImageResult is the single image a generation call must produce.
type ImageResult struct {
	Data      []byte
	MediaType string
}

// ImageGenerator renders one image per call.
type ImageGenerator interface {
	Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}
