// Package dataserver models the untrusted key-value byte store vaultbox
// writes ciphertext to. The store itself is adversarial: it
// may return arbitrary bytes, or report a handle missing, at any time. The
// Store interface captures only the raw, unauthenticated operations; the
// authenticated-envelope layer (envelope.go) is what every higher layer
// actually talks to.
package dataserver

import "github.com/brown-csci1660/vaultbox/internal/memloc"

// ErrNotFound is returned by Get when handle has never been written, or has
// been deleted.
type ErrNotFound struct {
	Handle memloc.Handle
}

func (e *ErrNotFound) Error() string {
	return "dataserver: handle not found: " + e.Handle.String()
}

// Store is the raw untrusted byte store. Implementations never interpret
// the bytes they hold.
type Store interface {
	// Set writes data at handle, overwriting any previous value. Set never
	// fails; a real untrusted store offers no delivery guarantee beyond
	// "this call returned."
	Set(handle memloc.Handle, data []byte)

	// Get returns the bytes at handle, or *ErrNotFound if handle is
	// unset.
	Get(handle memloc.Handle) ([]byte, error)

	// Delete removes handle. Deleting an unset handle is a no-op.
	Delete(handle memloc.Handle)

	// Clear removes every handle. Used by tests to reset store state
	// between scenarios.
	Clear()
}
