// Package memloc defines the 16-byte opaque addresses ("handles") that name
// records on the untrusted dataserver.
package memloc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size is the fixed length, in bytes, of every handle.
const Size = 16

// Handle is an opaque 16-byte address into the dataserver.
type Handle [Size]byte

// String renders h as a hex string, for logging only.
func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero handle (never a valid address
// produced by Make or MakeFromBytes, used as a sentinel for "unset").
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Make returns a freshly, randomly generated handle.
func Make() Handle {
	var h Handle
	if _, err := rand.Read(h[:]); err != nil {
		panic("memloc: failed to read random bytes: " + err.Error())
	}
	return h
}

// MakeFromBytes returns the deterministic handle consisting of the first
// Size bytes of label. Callers that need a handle derived from a longer
// value (e.g. an HMAC tag) should truncate before calling this, or simply
// pass the full tag; it is truncated here.
func MakeFromBytes(label []byte) Handle {
	var h Handle
	copy(h[:], label)
	return h
}

// ParseString parses the hex encoding produced by String back into a
// Handle. Only used by debugging tools (e.g. the CLI), never by the
// protocol itself.
func ParseString(s string) (Handle, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Handle{}, fmt.Errorf("memloc: invalid handle string: %w", err)
	}
	if len(b) != Size {
		return Handle{}, fmt.Errorf("memloc: handle must decode to %d bytes, got %d", Size, len(b))
	}
	var h Handle
	copy(h[:], b)
	return h, nil
}
