// Package vaulterrors defines the internal error taxonomy of vaultbox.
// Every internal operation fails with a *VaultError carrying one
// of the ErrorCode values below; the client facade (internal/client) wraps
// every VaultError that reaches its public surface in a single exported
// DropboxError, so callers only ever distinguish failures by the error's
// Code field, not by inspecting Go error types.
package vaulterrors

import "fmt"

// ErrorCode identifies which internal failure mode occurred.
type ErrorCode int

const (
	// ErrBadArgument: empty username, empty password, self-share, or an
	// otherwise malformed argument.
	ErrBadArgument ErrorCode = iota + 1

	// ErrUserExists: create_user for a username already registered.
	ErrUserExists

	// ErrUnknownUser: the named user has no public keys on the keyserver.
	ErrUnknownUser

	// ErrAuthFailed: authenticate_user could not recover a root record for
	// the given (username, password).
	ErrAuthFailed

	// ErrFileNotFound: the filename does not exist in the caller's
	// namespace.
	ErrFileNotFound

	// ErrNameTaken: receive_file for a filename the recipient already has.
	ErrNameTaken

	// ErrNotOwner: an operation (upload over a shared file, revoke) that
	// requires file ownership was attempted by a non-owner.
	ErrNotOwner

	// ErrNotSharedWith: revoke_file naming a user who is not a direct
	// child of the caller's share node.
	ErrNotSharedWith

	// ErrNotReceivedYet: share_file by a user who was invited to a file
	// but never called receive_file.
	ErrNotReceivedYet

	// ErrIntegrity: a MAC or signature check failed, an expected record
	// was missing or malformed, or a revoked capability was detected.
	ErrIntegrity
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrBadArgument:
		return "BadArgument"
	case ErrUserExists:
		return "UserExists"
	case ErrUnknownUser:
		return "UnknownUser"
	case ErrAuthFailed:
		return "AuthFailed"
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrNameTaken:
		return "NameTaken"
	case ErrNotOwner:
		return "NotOwner"
	case ErrNotSharedWith:
		return "NotSharedWith"
	case ErrNotReceivedYet:
		return "NotReceivedYet"
	case ErrIntegrity:
		return "IntegrityError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// VaultError is the internal error type every vaultbox package raises.
type VaultError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newf(code ErrorCode, format string, args ...any) *VaultError {
	return &VaultError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewBadArgumentError creates an ErrBadArgument error.
func NewBadArgumentError(format string, args ...any) *VaultError {
	return newf(ErrBadArgument, format, args...)
}

// NewUserExistsError creates an ErrUserExists error.
func NewUserExistsError(username string) *VaultError {
	return newf(ErrUserExists, "user %q already exists", username)
}

// NewUnknownUserError creates an ErrUnknownUser error.
func NewUnknownUserError(username string) *VaultError {
	return newf(ErrUnknownUser, "user %q is not registered", username)
}

// NewAuthFailedError creates an ErrAuthFailed error. The message is
// intentionally generic: authentication failure must not leak whether the
// username exists.
func NewAuthFailedError() *VaultError {
	return newf(ErrAuthFailed, "authentication failed")
}

// NewFileNotFoundError creates an ErrFileNotFound error.
func NewFileNotFoundError(filename string) *VaultError {
	return newf(ErrFileNotFound, "file %q not found", filename)
}

// NewNameTakenError creates an ErrNameTaken error.
func NewNameTakenError(filename string) *VaultError {
	return newf(ErrNameTaken, "filename %q already in use", filename)
}

// NewNotOwnerError creates an ErrNotOwner error.
func NewNotOwnerError(filename string) *VaultError {
	return newf(ErrNotOwner, "caller does not own %q", filename)
}

// NewNotSharedWithError creates an ErrNotSharedWith error.
func NewNotSharedWithError(filename, recipient string) *VaultError {
	return newf(ErrNotSharedWith, "%q is not a direct recipient of %q", recipient, filename)
}

// NewNotReceivedYetError creates an ErrNotReceivedYet error.
func NewNotReceivedYetError(filename string) *VaultError {
	return newf(ErrNotReceivedYet, "caller has not received %q yet", filename)
}

// NewIntegrityError creates an ErrIntegrity error.
func NewIntegrityError(format string, args ...any) *VaultError {
	return newf(ErrIntegrity, format, args...)
}

// Is reports whether err is a *VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	ve, ok := err.(*VaultError)
	return ok && ve.Code == code
}

// IsIntegrityError reports whether err is an ErrIntegrity VaultError.
func IsIntegrityError(err error) bool {
	return Is(err, ErrIntegrity)
}

// IsNotFoundError reports whether err is an ErrFileNotFound VaultError.
func IsNotFoundError(err error) bool {
	return Is(err, ErrFileNotFound)
}
