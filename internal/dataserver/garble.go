package dataserver

import (
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
)

// Garble overwrites handle with fresh random bytes of the same length as
// whatever is currently stored there. Used when abandoning a record during
// revocation: confidentiality depends only on keys, but garbling avoids
// leaving a well-formed-looking stale envelope around for a reader of the
// store dump. A missing handle is a no-op.
func Garble(store Store, handle memloc.Handle) {
	existing, err := store.Get(handle)
	if err != nil {
		return
	}
	store.Set(handle, primitives.SecureRandom(len(existing)))
}
