package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/easel/internal/book"
)

// newSession builds a session with a cover and two interior pages.
func newSession(id string) *book.Session {
	return &book.Session{
		ID:        id,
		Title:     "Forest Trip",
		Theme:     "a fox exploring the forest",
		Kind:      book.KindColoring,
		PageCount: 2,
		Billing:   book.BillingPerCall,
		Pages: []book.Page{
			{Index: 0, Prompt: "cover of a fox"},
			{Index: 1, Prompt: "fox by a stream"},
			{Index: 2, Prompt: "fox under the stars", Text: "Good night, fox."},
		},
		ContextImages: []book.ContextImage{
			{Data: []byte("ref-image"), MediaType: "image/png"},
		},
	}
}

// runStoreTests exercises both implementations against the same semantics.
func runStoreTests(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateAndLoad", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := s.Load(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Title != "Forest Trip" || got.Kind != book.KindColoring {
			t.Errorf("unexpected session: %+v", got)
		}
		if len(got.Pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(got.Pages))
		}
		if got.Pages[2].Text != "Good night, fox." {
			t.Errorf("page text not persisted: %q", got.Pages[2].Text)
		}
		if len(got.ContextImages) != 1 || string(got.ContextImages[0].Data) != "ref-image" {
			t.Errorf("context images not persisted: %+v", got.ContextImages)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("timestamps not initialized")
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if _, err := s.Load(ctx, "nope"); !errors.Is(err, book.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("PageBounds", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if _, err := s.Page(ctx, "sess-1", 2); err != nil {
			t.Errorf("index 2 should be valid: %v", err)
		}
		for _, idx := range []int{-1, 3, 99} {
			if _, err := s.Page(ctx, "sess-1", idx); !errors.Is(err, book.ErrInvalidIndex) {
				t.Errorf("index %d: expected ErrInvalidIndex, got %v", idx, err)
			}
		}
		if _, err := s.Page(ctx, "nope", 0); !errors.Is(err, book.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("PageUpdates", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if err := s.SetPrompt(ctx, "sess-1", 1, "fox by a waterfall"); err != nil {
			t.Fatalf("SetPrompt failed: %v", err)
		}
		if err := s.SetText(ctx, "sess-1", 1, "Splash!"); err != nil {
			t.Fatalf("SetText failed: %v", err)
		}
		if err := s.SetConfirmed(ctx, "sess-1", 1, true); err != nil {
			t.Fatalf("SetConfirmed failed: %v", err)
		}

		page, err := s.Page(ctx, "sess-1", 1)
		if err != nil {
			t.Fatalf("Page failed: %v", err)
		}
		if page.Prompt != "fox by a waterfall" || page.Text != "Splash!" || !page.Confirmed {
			t.Errorf("updates not persisted: %+v", page)
		}

		// Updating the prompt must not clobber artifact or confirmation.
		if err := s.ReplaceArtifact(ctx, "sess-1", 1, "ref-a", "image/png"); err != nil {
			t.Fatalf("ReplaceArtifact failed: %v", err)
		}
		if err := s.SetPrompt(ctx, "sess-1", 1, "fox at dawn"); err != nil {
			t.Fatalf("SetPrompt failed: %v", err)
		}
		page, _ = s.Page(ctx, "sess-1", 1)
		if page.ArtifactRef != "ref-a" || !page.Confirmed {
			t.Errorf("prompt update disturbed other fields: %+v", page)
		}
	})

	t.Run("VersionAdvances", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		before, _ := s.Load(ctx, "sess-1")

		if err := s.SetPrompt(ctx, "sess-1", 0, "new cover"); err != nil {
			t.Fatalf("SetPrompt failed: %v", err)
		}
		after, _ := s.Load(ctx, "sess-1")

		if after.Version <= before.Version {
			t.Errorf("version did not advance: %d -> %d", before.Version, after.Version)
		}
	})

	t.Run("CompareAndSwap", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// Empty slot, expecting empty: lands.
		swapped, err := s.CompareAndSwapArtifact(ctx, "sess-1", 1, "", "ref-1", "image/png")
		if err != nil || !swapped {
			t.Fatalf("CAS on empty slot: swapped=%v err=%v", swapped, err)
		}

		// Second writer still expecting empty: discarded.
		swapped, err = s.CompareAndSwapArtifact(ctx, "sess-1", 1, "", "ref-2", "image/png")
		if err != nil {
			t.Fatalf("CAS error: %v", err)
		}
		if swapped {
			t.Error("CAS expecting empty should fail on populated slot")
		}
		page, _ := s.Page(ctx, "sess-1", 1)
		if page.ArtifactRef != "ref-1" {
			t.Errorf("losing writer overwrote slot: %q", page.ArtifactRef)
		}

		// Forced regeneration pins the observed ref: lands.
		swapped, err = s.CompareAndSwapArtifact(ctx, "sess-1", 1, "ref-1", "ref-3", "image/png")
		if err != nil || !swapped {
			t.Fatalf("CAS with matching ref: swapped=%v err=%v", swapped, err)
		}

		// Bounds and existence still checked.
		if _, err := s.CompareAndSwapArtifact(ctx, "sess-1", 9, "", "x", "image/png"); !errors.Is(err, book.ErrInvalidIndex) {
			t.Errorf("expected ErrInvalidIndex, got %v", err)
		}
		if _, err := s.CompareAndSwapArtifact(ctx, "nope", 0, "", "x", "image/png"); !errors.Is(err, book.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("ReplaceBeatsInFlightCAS", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Create(ctx, newSession("sess-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// Generation observed an empty slot, then the user uploads.
		if err := s.ReplaceArtifact(ctx, "sess-1", 1, "upload-ref", "image/jpeg"); err != nil {
			t.Fatalf("ReplaceArtifact failed: %v", err)
		}

		// The late render must not displace the upload.
		swapped, err := s.CompareAndSwapArtifact(ctx, "sess-1", 1, "", "render-ref", "image/png")
		if err != nil {
			t.Fatalf("CAS error: %v", err)
		}
		if swapped {
			t.Error("stale render displaced user upload")
		}
		page, _ := s.Page(ctx, "sess-1", 1)
		if page.ArtifactRef != "upload-ref" || page.MediaType != "image/jpeg" {
			t.Errorf("upload lost: %+v", page)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "easel.db"))
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		return s
	})
}
