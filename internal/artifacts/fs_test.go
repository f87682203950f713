package artifacts

import (
	"bytes"
	"strings"
	"testing"
)

func TestPutAndGet(t *testing.T) {
	s := NewFSStore(t.TempDir())

	ref, err := s.Put("sess-1", 2, []byte("artifact-bytes"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Errorf("ref = %q, want a .png path", ref)
	}

	data, err := s.Get(ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(data, []byte("artifact-bytes")) {
		t.Errorf("data = %q", data)
	}
}

func TestPutNeverReusesReferences(t *testing.T) {
	s := NewFSStore(t.TempDir())

	ref1, err := s.Put("sess-1", 0, []byte("first"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	ref2, err := s.Put("sess-1", 0, []byte("second"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ref1 == ref2 {
		t.Fatalf("both writes produced %q; the old artifact would be clobbered", ref1)
	}

	// The superseded artifact stays readable for in-flight readers.
	if data, err := s.Get(ref1); err != nil || string(data) != "first" {
		t.Errorf("get old ref = %q, %v", data, err)
	}
}

func TestExtensionFollowsMediaType(t *testing.T) {
	s := NewFSStore(t.TempDir())

	tests := []struct {
		mediaType string
		ext       string
	}{
		{"image/jpeg", ".jpg"},
		{"image/webp", ".webp"},
		{"image/png", ".png"},
		{"", ".png"},
	}
	for _, tt := range tests {
		ref, err := s.Put("sess-1", 0, []byte("x"), tt.mediaType)
		if err != nil {
			t.Fatalf("put %q: %v", tt.mediaType, err)
		}
		if !strings.HasSuffix(ref, tt.ext) {
			t.Errorf("media type %q produced %q, want %s suffix", tt.mediaType, ref, tt.ext)
		}
	}
}

func TestGetMissingRef(t *testing.T) {
	s := NewFSStore(t.TempDir())
	if _, err := s.Get("/nonexistent/ref.png"); err == nil {
		t.Error("expected an error for a missing reference")
	}
}
