package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the easel home directory.
	DefaultDirName = ".easel"

	// DBFileName is the session database file.
	DBFileName = "easel.db"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the easel home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.easel).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DBPath returns the path to the session database.
func (d *Dir) DBPath() string {
	return filepath.Join(d.path, DBFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ArtifactsDir returns the directory holding generated page artifacts.
func (d *Dir) ArtifactsDir() string {
	return filepath.Join(d.path, "artifacts")
}

// SessionArtifactsDir returns the artifact directory for one session.
func (d *Dir) SessionArtifactsDir(sessionID string) string {
	return filepath.Join(d.ArtifactsDir(), sessionID)
}

// ExportsDir returns the directory for assembled documents.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, "exports")
}

// ExportPath returns the path for an assembled document.
func (d *Dir) ExportPath(documentID string) string {
	return filepath.Join(d.ExportsDir(), documentID+".pdf")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.path, d.ArtifactsDir(), d.ExportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
