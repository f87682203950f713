package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackzampolin/easel/internal/book"
)

// MockPlanner returns a deterministic plan, or a configured error.
type MockPlanner struct {
	Err error

	// Items overrides the generated item count to exercise shape checks.
	Items int

	mu    sync.Mutex
	calls []*PlanRequest
}

// Plan returns a synthetic plan matching the request's page count unless
// Items or Err is set.
func (m *MockPlanner) Plan(_ context.Context, req *PlanRequest) (*book.Plan, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	count := req.PageCount
	if m.Items > 0 {
		count = m.Items
	}

	plan := &book.Plan{CoverPrompt: "cover: " + req.Theme}
	for i := 1; i <= count; i++ {
		item := book.PlanItem{Index: i, Prompt: fmt.Sprintf("page %d: %s", i, req.Theme)}
		if req.Captions {
			item.Text = fmt.Sprintf("text for page %d", i)
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

// Calls returns the recorded plan requests.
func (m *MockPlanner) Calls() []*PlanRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*PlanRequest(nil), m.calls...)
}

// MockSummarizer returns a fixed summary.
type MockSummarizer struct {
	Summary string
}

func (m *MockSummarizer) Describe(_ context.Context, images []book.ContextImage) (string, error) {
	if len(images) == 0 {
		return "", nil
	}
	return m.Summary, nil
}

// MockImageGenerator returns synthetic image bytes and records every request.
// Block, when set, is closed by the test to release in-flight calls, which
// makes slot races reproducible.
type MockImageGenerator struct {
	Err   error
	Bytes []byte
	Block chan struct{}

	calls atomic.Int64

	mu       sync.Mutex
	requests []*ImageRequest
}

// Generate returns the configured bytes (default: a tagged placeholder).
func (m *MockImageGenerator) Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	n := m.calls.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	data := m.Bytes
	if data == nil {
		data = []byte(fmt.Sprintf("image-%d", n))
	}
	return &ImageResult{Data: data, MediaType: "image/png"}, nil
}

// Calls returns how many generations were requested.
func (m *MockImageGenerator) Calls() int64 { return m.calls.Load() }

// Requests returns the recorded image requests.
func (m *MockImageGenerator) Requests() []*ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ImageRequest(nil), m.requests...)
}

var (
	_ Planner        = (*MockPlanner)(nil)
	_ Summarizer     = (*MockSummarizer)(nil)
	_ ImageGenerator = (*MockImageGenerator)(nil)
)
