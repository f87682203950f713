package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/providers"
)

// tinyPNG encodes a small solid-color image the assembler can decode.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestFinalizeIncompleteSession(t *testing.T) {
	engine, _ := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 3})
	ctx := context.Background()

	// Only page 1 populated; cover, 2 and 3 still empty.
	if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err := engine.Finalize(ctx, sess.ID)
	var incomplete *book.IncompletePagesError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompletePagesError, got %v", err)
	}
	if !reflect.DeepEqual(incomplete.Missing, []int{0, 2, 3}) {
		t.Errorf("expected missing [0 2 3], got %v", incomplete.Missing)
	}
}

func TestFinalizeBuildsDocument(t *testing.T) {
	images := &providers.MockImageGenerator{Bytes: tinyPNG(t)}
	engine, deps := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	for i := 0; i <= 2; i++ {
		if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: i, Wait: true}); err != nil {
			t.Fatalf("Generate page %d failed: %v", i, err)
		}
	}

	docID, err := engine.Finalize(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if docID == "" {
		t.Fatal("empty document id")
	}

	pdf, err := deps.documents.Get(docID)
	if err != nil {
		t.Fatalf("document not retrievable: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("document is not a PDF (starts with %q)", pdf[:min(8, len(pdf))])
	}
}

func TestFinalizeIgnoresConfirmation(t *testing.T) {
	images := &providers.MockImageGenerator{Bytes: tinyPNG(t)}
	engine, _ := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 1})
	ctx := context.Background()

	for i := 0; i <= 1; i++ {
		if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: i, Wait: true}); err != nil {
			t.Fatalf("Generate page %d failed: %v", i, err)
		}
	}

	// Nothing confirmed; finalize proceeds anyway.
	if _, err := engine.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("Finalize should not require confirmation: %v", err)
	}
}

func TestFinalizeRebuilds(t *testing.T) {
	images := &providers.MockImageGenerator{Bytes: tinyPNG(t)}
	engine, _ := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 1})
	ctx := context.Background()

	for i := 0; i <= 1; i++ {
		if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: i, Wait: true}); err != nil {
			t.Fatalf("Generate page %d failed: %v", i, err)
		}
	}

	first, err := engine.Finalize(ctx, sess.ID)
	if err != nil {
		t.Fatalf("first Finalize failed: %v", err)
	}
	second, err := engine.Finalize(ctx, sess.ID)
	if err != nil {
		t.Fatalf("second Finalize failed: %v", err)
	}
	if first == second {
		t.Error("re-finalizing should mint a fresh document id")
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.Finalize(context.Background(), "nope"); !errors.Is(err, book.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
