// Package httpapi exposes the eight facade operations over HTTP: a thin
// chi-routed server shape around the core so vaultbox is usable as a
// long-running service and not only a library. Sessions bridge the gap
// between HTTP's statelessness and the facade's in-memory User handles.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brown-csci1660/vaultbox/internal/client"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

// Response represents a standard API response wrapper.
//
//   - Status indicates the overall result ("ok", "error", "healthy")
//   - Timestamp provides response time for debugging
//   - Data contains the response payload (optional)
//   - Error contains error details when Status indicates failure
//   - Code carries the DropboxError code name on facade failures
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// OKResponse creates a generic successful response.
func OKResponse(data any) Response {
	return Response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ErrorResponse creates a generic error response.
func ErrorResponse(errMsg string) Response {
	return Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// writeFacadeError translates a facade *DropboxError into an HTTP
// response carrying the error-code name. Correctness contracts live in
// the code, not the message text.
func writeFacadeError(w http.ResponseWriter, err error) {
	code, ok := client.Code(err)
	if !ok {
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}

	JSON(w, statusForCode(code), Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     err.Error(),
		Code:      code.String(),
	})
}

func statusForCode(code vaulterrors.ErrorCode) int {
	switch code {
	case vaulterrors.ErrBadArgument:
		return http.StatusBadRequest
	case vaulterrors.ErrUserExists, vaulterrors.ErrNameTaken:
		return http.StatusConflict
	case vaulterrors.ErrAuthFailed:
		return http.StatusUnauthorized
	case vaulterrors.ErrUnknownUser, vaulterrors.ErrFileNotFound:
		return http.StatusNotFound
	case vaulterrors.ErrNotOwner, vaulterrors.ErrNotSharedWith, vaulterrors.ErrNotReceivedYet:
		return http.StatusForbidden
	case vaulterrors.ErrIntegrity:
		return http.StatusBadGateway // the untrusted store served something unusable
	default:
		return http.StatusInternalServerError
	}
}
