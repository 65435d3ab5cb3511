// Package memorystore is an in-memory dataserver.Store implementation,
// used in tests and as the default local/dev backend: a mutex-guarded map
// of copied byte slices, so that callers can never mutate stored state by
// holding on to a slice they passed in or received back.
package memorystore

import (
	"sync"

	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
)

// Store is an in-memory dataserver.Store.
type Store struct {
	mu   sync.RWMutex
	data map[memloc.Handle][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[memloc.Handle][]byte)}
}

// Set implements dataserver.Store.
func (s *Store) Set(handle memloc.Handle, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[handle] = cp
}

// Get implements dataserver.Store.
func (s *Store) Get(handle memloc.Handle) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[handle]
	if !ok {
		return nil, &dataserver.ErrNotFound{Handle: handle}
	}

	cp := make([]byte, len(stored))
	copy(cp, stored)
	return cp, nil
}

// Delete implements dataserver.Store.
func (s *Store) Delete(handle memloc.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, handle)
}

// Clear implements dataserver.Store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[memloc.Handle][]byte)
}

var _ dataserver.Store = (*Store)(nil)
