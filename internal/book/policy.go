package book

import "fmt"

// Kind identifies a content type. All kinds share the same workflow engine;
// behavior differences are captured entirely by the Policy for the kind.
type Kind string

const (
	KindColoring  Kind = "coloring"
	KindStorybook Kind = "storybook"
	KindPoems     Kind = "poems"
)

// Policy parametrizes the workflow engine for one content kind: page-count
// ceiling, style directives appended to prompts, whether pages carry caption
// text, and the per-page credit cost.
type Policy struct {
	Kind Kind

	// MaxPages is the interior page-count ceiling for this kind.
	MaxPages int

	// CoverDirectives is appended to every cover prompt.
	CoverDirectives string

	// InteriorDirectives is appended to every interior page prompt.
	InteriorDirectives string

	// LineArt indicates black-and-white line-art output (coloring books).
	LineArt bool

	// Captions indicates whether the planner produces per-page body text
	// and the assembler draws caption bands.
	Captions bool

	// CreditsPerPage is the ledger charge for one generation.
	CreditsPerPage int64
}

var policies = map[Kind]Policy{
	KindColoring: {
		Kind:               KindColoring,
		MaxPages:           150,
		CoverDirectives:    "Full-color illustrated cover suitable for a children's coloring book.",
		InteriorDirectives: "Black-and-white line art with clean bold outlines, no shading, no color fills, white background, suitable for coloring.",
		LineArt:            true,
		Captions:           false,
		CreditsPerPage:     1,
	},
	KindStorybook: {
		Kind:               KindStorybook,
		MaxPages:           30,
		CoverDirectives:    "Full-color storybook cover illustration with the title treatment left blank.",
		InteriorDirectives: "Full-color storybook illustration, consistent character design and palette across pages.",
		Captions:           true,
		CreditsPerPage:     2,
	},
	KindPoems: {
		Kind:               KindPoems,
		MaxPages:           30,
		CoverDirectives:    "Full-color illustrated cover for a poetry collection.",
		InteriorDirectives: "Full-color illustration accompanying a poem, gentle composition leaving space for text.",
		Captions:           true,
		CreditsPerPage:     2,
	},
}

// PolicyFor returns the content policy for a kind.
func PolicyFor(kind Kind) (Policy, error) {
	p, ok := policies[kind]
	if !ok {
		return Policy{}, fmt.Errorf("unknown content kind %q", kind)
	}
	return p, nil
}

// Kinds returns all known content kinds.
func Kinds() []Kind {
	return []Kind{KindColoring, KindStorybook, KindPoems}
}
