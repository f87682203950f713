package providers

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/easel/internal/book"
)

const planSystemPrompt = `You plan illustrated books. Given a theme and a page count, produce one cover
prompt and one image prompt per interior page. Each prompt must stand alone:
name the characters and setting explicitly every time, never refer to other
pages. Respond with ONLY a JSON object of the form
{"cover_prompt": string, "items": [{"index": int, "prompt": string, "text": string}, ...]}
where items are numbered 1..N in order. No markdown, no commentary.`

// buildPlanPrompt renders the user message for a planning call.
func buildPlanPrompt(req *PlanRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", req.Title)
	fmt.Fprintf(&b, "Theme: %s\n", req.Theme)
	fmt.Fprintf(&b, "Content type: %s\n", req.Kind)
	fmt.Fprintf(&b, "Interior pages: %d\n", req.PageCount)

	if req.AgeRange != "" {
		fmt.Fprintf(&b, "Target age range: %s\n", req.AgeRange)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	}
	if req.StyleHints != "" {
		fmt.Fprintf(&b, "Style hints: %s\n", req.StyleHints)
	}
	if len(req.FocusCharacters) > 0 {
		fmt.Fprintf(&b, "Recurring characters: %s\n", strings.Join(req.FocusCharacters, ", "))
	}
	if len(req.Avoid) > 0 {
		fmt.Fprintf(&b, "Avoid: %s\n", strings.Join(req.Avoid, ", "))
	}
	if req.ReferenceSummary != "" {
		fmt.Fprintf(&b, "The user supplied reference images described as: %s\n", req.ReferenceSummary)
	}

	switch {
	case req.Kind == book.KindPoems && req.Captions:
		b.WriteString("For each item, put a short original poem for the page in the \"text\" field.\n")
	case req.Captions:
		b.WriteString("For each item, put 1-3 sentences of story text for the page in the \"text\" field.\n")
	default:
		b.WriteString("Leave the \"text\" field empty.\n")
	}

	fmt.Fprintf(&b, "Return exactly %d items numbered 1..%d.", req.PageCount, req.PageCount)
	return b.String()
}
