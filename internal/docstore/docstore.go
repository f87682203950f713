// Package docstore persists assembled documents and serves them back for
// download.
package docstore

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jackzampolin/easel/internal/home"
)

// Store accepts final assembled bytes and returns a stable identifier usable
// for later retrieval.
type Store interface {
	// Put stores the document and returns its identifier.
	Put(data []byte) (string, error)

	// Get reads a stored document by identifier.
	Get(id string) ([]byte, error)
}

// FSStore implements Store under the home exports directory.
type FSStore struct {
	home *home.Dir
}

// NewFSStore creates a document store under the given home directory.
func NewFSStore(h *home.Dir) *FSStore {
	return &FSStore{home: h}
}

// Put writes the document and returns a uuid identifier.
func (s *FSStore) Put(data []byte) (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(s.home.ExportsDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}
	if err := os.WriteFile(s.home.ExportPath(id), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return id, nil
}

// Get reads a stored document.
func (s *FSStore) Get(id string) ([]byte, error) {
	data, err := os.ReadFile(s.home.ExportPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return data, nil
}

var _ Store = (*FSStore)(nil)
