// Package memorystore is an in-memory keyserver.Directory, used in tests
// and as the default local/dev backend.
package memorystore

import (
	"sync"

	"github.com/brown-csci1660/vaultbox/internal/keyserver"
)

// Store is an in-memory keyserver.Directory.
type Store struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// New creates an empty in-memory keyserver.
func New() *Store {
	return &Store{keys: make(map[string][]byte)}
}

// Set implements keyserver.Directory.
func (s *Store) Set(name string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[name]; ok {
		return keyserver.ErrAlreadyExists
	}

	cp := make([]byte, len(key))
	copy(cp, key)
	s.keys[name] = cp
	return nil
}

// Get implements keyserver.Directory.
func (s *Store) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[name]
	if !ok {
		return nil, keyserver.ErrNotFound
	}

	cp := make([]byte, len(key))
	copy(cp, key)
	return cp, nil
}

// Clear implements keyserver.Directory.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = make(map[string][]byte)
}

var _ keyserver.Directory = (*Store)(nil)
