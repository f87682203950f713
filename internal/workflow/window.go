package workflow

import (
	"github.com/jackzampolin/easel/internal/book"
)

// contextWindow assembles the reference images for a generation call:
// up to limit prior artifacts (pages with index < target that already hold
// an artifact, in index order, most recent last), followed by the session's
// standing context images. When primary is non-nil it is prepended so it
// takes priority ordering; Edit uses this to anchor on the current render.
//
// Fewer eligible artifacts than limit is normal, including zero; artifact
// read failures drop that reference rather than failing the call.
func (e *Engine) contextWindow(sess *book.Session, target, limit int, primary *book.ContextImage) []book.ContextImage {
	if limit <= 0 || limit > MaxWindowSize {
		limit = e.windowSize
	}

	var eligible []int
	for i := 0; i < target && i < len(sess.Pages); i++ {
		if sess.Pages[i].Populated() {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}

	window := make([]book.ContextImage, 0, len(eligible)+len(sess.ContextImages)+1)
	if primary != nil {
		window = append(window, *primary)
	}
	for _, idx := range eligible {
		page := &sess.Pages[idx]
		data, err := e.artifacts.Get(page.ArtifactRef)
		if err != nil {
			e.logger.Warn("skipping unreadable context artifact",
				"session", sess.ID, "page", idx, "error", err)
			continue
		}
		window = append(window, book.ContextImage{Data: data, MediaType: page.MediaType})
	}
	window = append(window, sess.ContextImages...)

	return window
}
