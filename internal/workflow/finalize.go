package workflow

import (
	"context"
	"fmt"

	"github.com/jackzampolin/easel/internal/assemble"
	"github.com/jackzampolin/easel/internal/book"
)

// Finalize assembles a fully populated session into a paginated document and
// hands it to document persistence, returning the document id. Every page
// must hold an artifact; confirmation state is not a gate. Finalize never
// generates missing pages itself, and re-finalizing is allowed: the document
// is always rebuilt from the current page artifacts.
func (e *Engine) Finalize(ctx context.Context, sessionID string) (string, error) {
	if e.assembler == nil || e.documents == nil {
		return "", fmt.Errorf("finalize requires an assembler and document store")
	}

	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if missing := sess.MissingPages(); len(missing) > 0 {
		return "", &book.IncompletePagesError{Missing: missing}
	}

	policy, err := book.PolicyFor(sess.Kind)
	if err != nil {
		return "", err
	}

	doc := &assemble.Document{Print: sess.Print}
	for i := range sess.Pages {
		page := &sess.Pages[i]
		data, err := e.artifacts.Get(page.ArtifactRef)
		if err != nil {
			return "", fmt.Errorf("failed to read artwork for page %d: %w", page.Index, err)
		}
		in := assemble.PageInput{Data: data, MediaType: page.MediaType}
		// The cover never carries a caption band.
		if policy.Captions && page.Index > 0 {
			in.Caption = page.Text
		}
		doc.Pages = append(doc.Pages, in)
	}

	pdf, err := e.assembler.Build(doc)
	if err != nil {
		return "", err
	}

	docID, err := e.documents.Put(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to persist document: %w", err)
	}

	e.logger.Info("session finalized", "session", sessionID, "document", docID, "pages", len(doc.Pages))
	return docID, nil
}
