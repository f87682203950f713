// Package artifacts stores raw page image bytes on disk and hands back
// opaque references the session store can hold.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store persists artifact bytes and reads them back by reference.
type Store interface {
	// Put writes bytes for a session page and returns an opaque reference.
	// References are unique per call: the generation timestamp is part of
	// the key, so regenerating a page never reuses a reference.
	Put(sessionID string, index int, data []byte, mediaType string) (string, error)

	// Get reads bytes back by reference.
	Get(ref string) ([]byte, error)
}

// FSStore implements Store on the local filesystem.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem artifact store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

// Put writes the artifact under <root>/<session>/page_<idx>_<nanos>.<ext>.
func (s *FSStore) Put(sessionID string, index int, data []byte, mediaType string) (string, error) {
	dir := filepath.Join(s.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	name := fmt.Sprintf("page_%03d_%d%s", index, time.Now().UnixNano(), extFor(mediaType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// Get reads artifact bytes by reference.
func (s *FSStore) Get(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", ref, err)
	}
	return data, nil
}

func extFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

var _ Store = (*FSStore)(nil)
