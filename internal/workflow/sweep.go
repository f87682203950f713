package workflow

import (
	"context"

	"github.com/jackzampolin/easel/internal/providers"
)

// Sweep fills any still-empty page slot of a session in a single best-effort
// pass: indices 0..pageCount in order, re-loading current state from the
// store before each one so slots filled by concurrent foreground calls are
// skipped. Writes go through the same CAS rule as foreground generation. A
// page's failure is logged and the sweep moves on; there are no retries, and
// a failed page simply stays empty until a foreground Generate/Edit.
func (e *Engine) Sweep(ctx context.Context, sessionID string) {
	logger := e.logger.With("session", sessionID, "op", "sweep")

	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		logger.Error("sweep aborted, cannot load session", "error", err)
		return
	}

	for index := 0; index <= sess.PageCount; index++ {
		if ctx.Err() != nil {
			logger.Info("sweep stopped", "error", ctx.Err())
			return
		}

		// Re-derive state from the store, not a cached copy: a
		// foreground call may have filled or edited pages since the
		// last iteration.
		sess, err = e.store.Load(ctx, sessionID)
		if err != nil {
			logger.Error("sweep aborted, cannot reload session", "error", err)
			return
		}
		page := sess.Page(index)
		if page == nil || page.Populated() {
			continue
		}

		if err := e.chargeGeneration(ctx, sess); err != nil {
			logger.Warn("skipping page, charge failed", "page", index, "error", err)
			continue
		}

		req := &providers.ImageRequest{
			Prompt:  e.buildFinalPrompt(sess, page),
			Context: e.contextWindow(sess, index, 0, nil),
			Print:   sess.Print,
		}
		if err := e.renderAndPersist(ctx, sessionID, index, "", req); err != nil {
			logger.Warn("page generation failed, continuing sweep", "page", index, "error", err)
			continue
		}
		logger.Debug("page filled", "page", index)
	}
}
