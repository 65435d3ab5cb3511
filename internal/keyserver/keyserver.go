// Package keyserver models the trusted public-key directory vaultbox relies
// on for identity. It is a one-shot-write, any-read mapping
// from string names (conventionally "{username}/enc" or
// "{username}/verify") to the raw bytes of a public key. Unlike the
// dataserver, the keyserver is trusted: it never lies, and it never
// discards a written name.
package keyserver

import "errors"

// ErrNotFound is returned by Get when name has never been written.
var ErrNotFound = errors.New("keyserver: name not found")

// ErrAlreadyExists is returned by Set when name has already been written.
// Keyserver names are write-once, so a concurrent duplicate registration
// fails here rather than silently overwriting an existing identity.
var ErrAlreadyExists = errors.New("keyserver: name already registered")

// Directory is the trusted keyserver's interface.
type Directory interface {
	// Set publishes key under name. It fails with ErrAlreadyExists if name
	// has already been written.
	Set(name string, key []byte) error

	// Get returns the key published under name, or ErrNotFound.
	Get(name string) ([]byte, error)

	// Clear removes every name. Used by tests to reset state between
	// scenarios.
	Clear()
}
