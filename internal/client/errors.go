package client

import (
	"errors"
	"fmt"

	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// DropboxError is the single error type every public operation returns:
// callers distinguish failures by Code, never by inspecting an internal
// Go error type or parsing a message string.
type DropboxError struct {
	Code vaulterrors.ErrorCode
	Err  error
}

func (e *DropboxError) Error() string {
	return fmt.Sprintf("dropbox: %s: %v", e.Code, e.Err)
}

func (e *DropboxError) Unwrap() error { return e.Err }

// wrap converts any error returned by an internal package into a
// *DropboxError. A *vaulterrors.VaultError keeps its code; anything else
// (a programming bug a lower layer failed to classify) is reported as an
// integrity error rather than leaking an unclassified error type across
// the facade boundary.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*vaulterrors.VaultError); ok {
		return &DropboxError{Code: ve.Code, Err: ve}
	}
	return &DropboxError{Code: vaulterrors.ErrIntegrity, Err: err}
}

// Code returns the ErrorCode of err if it is (or wraps) a *DropboxError,
// and false otherwise. Tests use this instead of comparing error values.
func Code(err error) (vaulterrors.ErrorCode, bool) {
	var de *DropboxError
	if !errors.As(err, &de) {
		return 0, false
	}
	return de.Code, true
}
