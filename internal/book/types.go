// Package book defines the domain model for multi-page illustrated documents:
// sessions, pages, plans, print specifications and the per-kind content policy.
package book

import "time"

// FitMode controls how an artifact's aspect ratio is reconciled with a fixed
// print page size.
type FitMode string

const (
	// FitContain scales the artifact to fit entirely within the page,
	// preserving aspect ratio and letterboxing the remainder.
	FitContain FitMode = "contain"

	// FitCover scales the artifact to fill the page completely, preserving
	// aspect ratio and cropping overflow.
	FitCover FitMode = "cover"
)

// BillingMode records how credits are charged for a session. It is set once
// at creation and read-only thereafter.
type BillingMode string

const (
	// BillingPerCall charges the ledger for each Generate/Edit call.
	BillingPerCall BillingMode = "per-call"

	// BillingPrecharged charges once at planning for the cover plus all
	// interior pages; individual generation calls are then free.
	BillingPrecharged BillingMode = "precharged"
)

// PrintSpec describes a fixed physical output size. When nil, pages are
// emitted at the artifact's natural pixel dimensions.
type PrintSpec struct {
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	DPI          int     `json:"dpi"`
	Fit          FitMode `json:"fit"`
}

// WidthPoints returns the page width in PDF points (inches x 72).
func (p *PrintSpec) WidthPoints() float64 { return p.WidthInches * 72 }

// HeightPoints returns the page height in PDF points (inches x 72).
func (p *PrintSpec) HeightPoints() float64 { return p.HeightInches * 72 }

// Page is one addressable unit within a session. Index 0 is the cover;
// indices 1..N are interior pages in planned order.
type Page struct {
	Index       int    `json:"index"`
	Prompt      string `json:"prompt"`
	Text        string `json:"text,omitempty"`
	ArtifactRef string `json:"artifact_ref,omitempty"`
	MediaType   string `json:"media_type,omitempty"`
	Confirmed   bool   `json:"confirmed"`
}

// Populated reports whether the page holds an artifact.
func (p *Page) Populated() bool { return p.ArtifactRef != "" }

// ContextImage is a user-supplied reference image, immutable after planning.
// Every generation call for the session receives it as a standing style and
// identity anchor.
type ContextImage struct {
	Data      []byte `json:"-"`
	MediaType string `json:"media_type"`
}

// Session is one multi-page generation job: a cover plus PageCount interior
// pages. Pages always has length PageCount+1 once planned, and page indices
// are stable for the session's lifetime.
type Session struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Theme         string         `json:"theme"`
	Kind          Kind           `json:"kind"`
	PageCount     int            `json:"page_count"`
	Billing       BillingMode    `json:"billing"`
	Account       string         `json:"account,omitempty"`
	Print         *PrintSpec     `json:"print,omitempty"`
	Pages         []Page         `json:"pages"`
	ContextImages []ContextImage `json:"context_images,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Version is the store's optimistic concurrency counter. It is managed
	// by the store and must not be set by callers.
	Version int64 `json:"version"`
}

// Page returns the page at index, or nil if out of range.
func (s *Session) Page(index int) *Page {
	if index < 0 || index >= len(s.Pages) {
		return nil
	}
	return &s.Pages[index]
}

// MissingPages returns the indices of all pages without an artifact, in order.
func (s *Session) MissingPages() []int {
	var missing []int
	for i := range s.Pages {
		if !s.Pages[i].Populated() {
			missing = append(missing, i)
		}
	}
	return missing
}

// Complete reports whether every page holds an artifact.
func (s *Session) Complete() bool { return len(s.MissingPages()) == 0 }

// PlanItem is one interior page prompt produced by the planner, tagged with
// its 1-based page index.
type PlanItem struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Text   string `json:"text,omitempty"`
}

// Plan is the transient result of a planning call. It is never persisted as
// its own entity; it only seeds page prompts at session creation.
type Plan struct {
	CoverPrompt string     `json:"cover_prompt"`
	Items       []PlanItem `json:"items"`
}
