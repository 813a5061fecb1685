// Package store is the document store adapter: it owns all filesystem I/O
// for generated documents. Writes are all-or-nothing (temp file plus rename)
// so a concurrent reader, or an aborted run, never observes a half-written
// document.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentStore reads and writes documents keyed by unit identity.
type DocumentStore interface {
	// Read returns the prior document for a unit, reporting whether one exists.
	Read(identity string) ([]byte, bool, error)

	// Write atomically persists the document for a unit.
	Write(identity string, data []byte) error

	// Path returns the filesystem path a unit's document maps to.
	Path(identity string) string
}

// FileStore maps unit identities onto markdown files under a root directory:
// identity "internal/protect" becomes "<root>/internal/protect.md".
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Path implements DocumentStore.
func (s *FileStore) Path(identity string) string {
	clean := filepath.FromSlash(strings.Trim(identity, "/"))
	return filepath.Join(s.root, clean+".md")
}

// Read implements DocumentStore.
func (s *FileStore) Read(identity string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(identity))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read document %s: %w", identity, err)
	}
	return data, true, nil
}

// Write implements DocumentStore. The document is written to a temporary file
// in the target directory and renamed into place, so the rename stays on one
// filesystem and the swap is atomic.
func (s *FileStore) Write(identity string, data []byte) error {
	path := s.Path(identity)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", identity, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", identity, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", identity, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file for %s: %w", identity, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into place for %s: %w", identity, err)
	}
	return nil
}
