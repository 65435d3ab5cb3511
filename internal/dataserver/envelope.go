package dataserver

import (
	"github.com/brown-csci1660/vaultbox/internal/memloc"
	"github.com/brown-csci1660/vaultbox/internal/primitives"
)

// EnvelopeKeySize is the size, in bytes, of both the symmetric encryption
// key and the HMAC key used by PutAuthenticated/GetAuthenticated.
const EnvelopeKeySize = 16

// PutAuthenticated writes an authenticated envelope at handle: the AES-CBC
// ciphertext of plaintext under encKey, with a trailing HMAC-SHA-512 tag
// over handle||ciphertext under macKey. Binding handle into the MAC stops
// an adversary from relocating one envelope to another handle undetected.
func PutAuthenticated(store Store, handle memloc.Handle, encKey, macKey, plaintext []byte) error {
	iv := primitives.SecureRandom(16)
	ciphertext, err := primitives.SymmetricEncrypt(encKey, iv, plaintext)
	if err != nil {
		return err
	}

	tag, err := primitives.HMAC(macKey, append(handle[:], ciphertext...))
	if err != nil {
		return err
	}

	store.Set(handle, append(ciphertext, tag...))
	return nil
}

// GetAuthenticated reads the authenticated envelope at handle, verifies its
// HMAC tag in constant time, and decrypts it. Any authentication failure
// (truncated or tampered ciphertext, truncated or wrong MAC, wrong keys)
// is reported as ErrIntegrityCheckFailed; a missing handle returns the
// store's own error unchanged.
func GetAuthenticated(store Store, handle memloc.Handle, encKey, macKey []byte) ([]byte, error) {
	raw, err := store.Get(handle)
	if err != nil {
		return nil, err
	}

	const tagSize = 64 // SHA-512 HMAC output
	if len(raw) < tagSize {
		return nil, ErrIntegrityCheckFailed
	}

	ciphertext := raw[:len(raw)-tagSize]
	tag := raw[len(raw)-tagSize:]

	if !primitives.HMACVerify(macKey, append(handle[:], ciphertext...), tag) {
		return nil, ErrIntegrityCheckFailed
	}

	plaintext, err := primitives.SymmetricDecrypt(encKey, ciphertext)
	if err != nil {
		return nil, ErrIntegrityCheckFailed
	}
	return plaintext, nil
}

// ErrIntegrityCheckFailed is returned by GetAuthenticated whenever the
// envelope does not authenticate. It carries no detail about which check
// failed, since the distinction is not observable to a legitimate caller.
var ErrIntegrityCheckFailed = &IntegrityError{}

// IntegrityError marks any authentication failure at the envelope layer.
type IntegrityError struct{}

func (e *IntegrityError) Error() string {
	return "dataserver: envelope authentication failed"
}
