package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackzampolin/easel/internal/book"
)

// MemoryStore is an in-memory Store for unit tests. It mirrors the SQLite
// implementation's semantics, including the single-transaction CAS.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*book.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*book.Session)}
}

func (m *MemoryStore) Create(_ context.Context, sess *book.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	sess.Version = 1
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*book.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", book.ErrSessionNotFound, id)
	}
	return copySession(sess), nil
}

func (m *MemoryStore) Page(_ context.Context, sessionID string, index int) (*book.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SetPrompt(_ context.Context, sessionID string, index int, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return err
	}
	p.Prompt = prompt
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) SetText(_ context.Context, sessionID string, index int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return err
	}
	p.Text = text
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) SetConfirmed(_ context.Context, sessionID string, index int, confirmed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return err
	}
	p.Confirmed = confirmed
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) ReplaceArtifact(_ context.Context, sessionID string, index int, ref, mediaType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return err
	}
	p.ArtifactRef = ref
	p.MediaType = mediaType
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) CompareAndSwapArtifact(_ context.Context, sessionID string, index int, expect, ref, mediaType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.page(sessionID, index)
	if err != nil {
		return false, err
	}
	if p.ArtifactRef != expect {
		return false, nil
	}
	p.ArtifactRef = ref
	p.MediaType = mediaType
	m.touch(sessionID)
	return true, nil
}

func (m *MemoryStore) Close() error { return nil }

// page returns the live page pointer; callers must hold the lock.
func (m *MemoryStore) page(sessionID string, index int) (*book.Page, error) {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", book.ErrSessionNotFound, sessionID)
	}
	if index < 0 || index > sess.PageCount {
		return nil, fmt.Errorf("%w: %d (session has pages 0..%d)", book.ErrInvalidIndex, index, sess.PageCount)
	}
	return &sess.Pages[index], nil
}

func (m *MemoryStore) touch(sessionID string) {
	sess := m.sessions[sessionID]
	sess.Version++
	sess.UpdatedAt = time.Now().UTC()
}

func copySession(s *book.Session) *book.Session {
	cp := *s
	cp.Pages = make([]book.Page, len(s.Pages))
	copy(cp.Pages, s.Pages)
	cp.ContextImages = make([]book.ContextImage, len(s.ContextImages))
	for i, img := range s.ContextImages {
		data := make([]byte, len(img.Data))
		copy(data, img.Data)
		cp.ContextImages[i] = book.ContextImage{Data: data, MediaType: img.MediaType}
	}
	return &cp
}

var _ Store = (*MemoryStore)(nil)
