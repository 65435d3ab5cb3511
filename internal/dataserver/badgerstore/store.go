// Package badgerstore is a BadgerDB-backed dataserver.Store, the
// persistent single-node backend. Records are keyed by the raw 16-byte
// handle; Badger's transactions give the copy-out-on-read semantics the
// Store contract requires.
package badgerstore

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/memloc"
)

// Store is a BadgerDB-backed dataserver.Store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for a store this small

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: opening %q: %w", path, err)
	}
	logger.Debug("badger dataserver opened", logger.KeyPath, path)
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set implements dataserver.Store.
func (s *Store) Set(handle memloc.Handle, data []byte) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(handle[:], data)
	})
	if err != nil {
		// The Store contract has no error path for Set; an untrusted
		// store that loses a write is indistinguishable from one that
		// never stored it, and every read is authenticated anyway.
		logger.Warn("badger dataserver write failed", logger.Handle(handle[:]), logger.KeyError, err.Error())
	}
}

// Get implements dataserver.Store.
func (s *Store) Get(handle memloc.Handle) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(handle[:])
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, &dataserver.ErrNotFound{Handle: handle}
	}
	return out, nil
}

// Delete implements dataserver.Store.
func (s *Store) Delete(handle memloc.Handle) {
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(handle[:])
	})
}

// Clear implements dataserver.Store.
func (s *Store) Clear() {
	_ = s.db.DropAll()
}

var _ dataserver.Store = (*Store)(nil)
