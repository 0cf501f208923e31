package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store resolves media file references into raw content bytes.
type Store interface {
	// Exists reports whether content for ref is present in the store.
	Exists(ref string) bool

	// Read returns the content bytes for ref.
	// Returns ErrContentNotFound if the content is missing.
	Read(ref string) ([]byte, error)
}

// FSStore serves media content from a directory root.
// References are paths relative to the root; references that escape
// the root are rejected.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at the given directory.
func NewFSStore(root string) (*FSStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %q is not a directory", root)
	}
	return &FSStore{root: root}, nil
}

// resolve maps a reference to an absolute path under the root.
func (s *FSStore) resolve(ref string) (string, error) {
	if ref == "" {
		return "", ErrInvalidRef
	}
	cleaned := filepath.Clean("/" + ref)
	if cleaned == "/" {
		return "", ErrInvalidRef
	}
	path := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", ErrInvalidRef
	}
	return path, nil
}

// Exists reports whether content for ref is present on disk.
func (s *FSStore) Exists(ref string) bool {
	path, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read returns the content bytes for ref.
func (s *FSStore) Read(ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentNotFound, ref)
		}
		return nil, err
	}
	return data, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.RWMutex
	content map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{content: make(map[string][]byte)}
}

// Put stores content under ref.
func (s *MemStore) Put(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[ref] = data
}

// Exists reports whether content for ref is present.
func (s *MemStore) Exists(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.content[ref]
	return ok
}

// Read returns the content bytes for ref.
func (s *MemStore) Read(ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.content[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, ref)
	}
	return data, nil
}

var (
	_ Store = (*FSStore)(nil)
	_ Store = (*MemStore)(nil)
)
