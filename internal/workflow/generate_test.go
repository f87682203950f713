package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/ledger"
	"github.com/jackzampolin/easel/internal/providers"
)

func TestGenerateWaitPopulatesPage(t *testing.T) {
	engine, deps := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 3})

	updated, err := engine.Generate(context.Background(), &GenerateInput{
		SessionID: sess.ID, Index: 1, Wait: true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	page := updated.Page(1)
	if !page.Populated() {
		t.Fatal("page 1 not populated after synchronous generate")
	}
	data, err := deps.artifacts.Get(page.ArtifactRef)
	if err != nil {
		t.Fatalf("artifact unreadable: %v", err)
	}
	if len(data) == 0 {
		t.Error("artifact is empty")
	}
}

func TestGeneratePromptCarriesDirectives(t *testing.T) {
	engine, deps := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{
		PageCount: 2,
		Print:     &book.PrintSpec{WidthInches: 8.5, HeightInches: 11, DPI: 300, Fit: book.FitContain},
	})

	if _, err := engine.Generate(context.Background(), &GenerateInput{
		SessionID: sess.ID, Index: 1, Wait: true,
	}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	reqs := deps.images.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 image request, got %d", len(reqs))
	}
	prompt := reqs[0].Prompt
	if !strings.Contains(prompt, "line art") {
		t.Errorf("interior directives missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "8.5x11 inches") {
		t.Errorf("print target missing from prompt: %q", prompt)
	}
}

func TestGenerateOnPopulatedPage(t *testing.T) {
	engine, _ := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true}); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}

	// A repeat without Force is caller error.
	_, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true})
	var verr *book.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// Force pins the observed artifact and replaces it.
	before, _ := engine.Session(ctx, sess.ID)
	updated, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true, Force: true})
	if err != nil {
		t.Fatalf("forced generate failed: %v", err)
	}
	if updated.Page(1).ArtifactRef == before.Page(1).ArtifactRef {
		t.Error("forced generate did not produce a fresh artifact")
	}
}

func TestGenerateInvalidInputs(t *testing.T) {
	engine, _ := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 3, Wait: true}); !errors.Is(err, book.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := engine.Generate(ctx, &GenerateInput{SessionID: "nope", Index: 0, Wait: true}); !errors.Is(err, book.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGenerateBackendFailure(t *testing.T) {
	engine, _ := newTestEngine(t, withImages(&providers.MockImageGenerator{Err: errors.New("model refused")}))
	sess := planSession(t, engine, &PlanInput{PageCount: 2})

	_, err := engine.Generate(context.Background(), &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	// The slot stays empty and a retry is allowed.
	cur, _ := engine.Session(context.Background(), sess.ID)
	if cur.Page(1).Populated() {
		t.Error("failed generation left a populated slot")
	}
}

func TestGenerateAsync(t *testing.T) {
	images := &providers.MockImageGenerator{Block: make(chan struct{})}
	engine, deps := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	// Fire-and-return hands back the pre-generation state immediately.
	got, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1})
	if err != nil {
		t.Fatalf("async generate failed: %v", err)
	}
	if got.Page(1).Populated() {
		t.Error("async response should show the slot still empty")
	}

	close(images.Block)
	waitFor(t, 2*time.Second, func() bool {
		cur, err := deps.store.Load(ctx, sess.ID)
		return err == nil && cur.Page(1).Populated()
	})
}

func TestGenerateRaceOneWinner(t *testing.T) {
	images := &providers.MockImageGenerator{Block: make(chan struct{})}
	engine, _ := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	// Two racers observe the empty slot before either render lands.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true})
		}(i)
	}

	waitFor(t, 2*time.Second, func() bool { return images.Calls() == 2 })
	close(images.Block)
	wg.Wait()

	// A lost race is not an error; the loser's render is discarded.
	for i, err := range results {
		if err != nil {
			t.Errorf("racer %d returned error: %v", i, err)
		}
	}

	cur, _ := engine.Session(ctx, sess.ID)
	if !cur.Page(1).Populated() {
		t.Fatal("no render landed")
	}

	// Exactly one write landed: the loser's CAS failed without touching
	// the session, so the version moved exactly once past planning.
	if cur.Version != sess.Version+1 {
		t.Errorf("expected exactly one landed write, version %d -> %d", sess.Version, cur.Version)
	}
}

func TestReplaceWinsOverInFlightGenerate(t *testing.T) {
	images := &providers.MockImageGenerator{Block: make(chan struct{})}
	engine, deps := newTestEngine(t, withImages(images))
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true})
		done <- err
	}()

	// The render is in flight; the user uploads a replacement.
	waitFor(t, 2*time.Second, func() bool { return images.Calls() == 1 })
	if _, err := engine.Replace(ctx, sess.ID, 1, []byte("user-upload"), "image/jpeg"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	close(images.Block)
	if err := <-done; err != nil {
		t.Fatalf("in-flight generate errored: %v", err)
	}

	// The late render must not displace the upload.
	cur, _ := engine.Session(ctx, sess.ID)
	data, err := deps.artifacts.Get(cur.Page(1).ArtifactRef)
	if err != nil {
		t.Fatalf("artifact unreadable: %v", err)
	}
	if string(data) != "user-upload" {
		t.Errorf("stale render displaced user upload: %q", data)
	}
	if cur.Page(1).MediaType != "image/jpeg" {
		t.Errorf("upload media type lost: %q", cur.Page(1).MediaType)
	}
}

func TestEditAnchorsOnCurrentArtwork(t *testing.T) {
	engine, deps := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 2})
	ctx := context.Background()

	first, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	firstData, _ := deps.artifacts.Get(first.Page(1).ArtifactRef)

	updated, err := engine.Edit(ctx, &EditInput{
		SessionID: sess.ID, Index: 1, PromptOverride: "make the fox bigger",
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if updated.Page(1).ArtifactRef == first.Page(1).ArtifactRef {
		t.Error("edit did not produce a fresh artifact")
	}

	// The previous render anchors the edit as the first reference image.
	reqs := deps.images.Requests()
	editReq := reqs[len(reqs)-1]
	if len(editReq.Context) == 0 || string(editReq.Context[0].Data) != string(firstData) {
		t.Error("edit request not anchored on the current artwork")
	}
	if !strings.Contains(editReq.Prompt, "make the fox bigger") {
		t.Errorf("prompt override not used: %q", editReq.Prompt)
	}

	// One-off override: the stored prompt is untouched.
	if got := updated.Page(1).Prompt; strings.Contains(got, "bigger") {
		t.Errorf("prompt override leaked into stored prompt: %q", got)
	}
}

func TestEditOnEmptySlotDegradesToGenerate(t *testing.T) {
	engine, deps := newTestEngine(t)
	sess := planSession(t, engine, &PlanInput{PageCount: 2})

	updated, err := engine.Edit(context.Background(), &EditInput{SessionID: sess.ID, Index: 1})
	if err != nil {
		t.Fatalf("Edit on empty slot failed: %v", err)
	}
	if !updated.Page(1).Populated() {
		t.Error("edit on empty slot should fill it")
	}
	reqs := deps.images.Requests()
	if len(reqs) != 1 || len(reqs[0].Context) != 0 {
		t.Errorf("empty-slot edit should have no anchor, got %d refs", len(reqs[0].Context))
	}
}

func TestGenerateChargesPerCall(t *testing.T) {
	led := ledger.NewMemoryLedger()
	led.Credit("acct", 1)
	engine, _ := newTestEngine(t, withLedger(led))
	sess := planSession(t, engine, &PlanInput{PageCount: 2, Account: "acct"})
	ctx := context.Background()

	if _, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 1, Wait: true}); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	if got := led.Balance("acct"); got != 0 {
		t.Errorf("expected balance 0 after one generation, got %d", got)
	}

	_, err := engine.Generate(ctx, &GenerateInput{SessionID: sess.ID, Index: 2, Wait: true})
	if !errors.Is(err, ledger.ErrInsufficientQuota) {
		t.Fatalf("expected ErrInsufficientQuota, got %v", err)
	}
}
