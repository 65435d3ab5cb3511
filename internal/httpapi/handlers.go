package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brown-csci1660/vaultbox/internal/client"
)

var validate = validator.New()

// Request DTOs. File data travels base64-encoded inside JSON ([]byte
// fields marshal that way by default), matching the store's
// bytes-in/bytes-out contract without inventing a binary framing.

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// UploadRequest stores Data under Filename.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required"`
	Data     []byte `json:"data"`
}

// AppendRequest appends Data to Filename.
type AppendRequest struct {
	Filename string `json:"filename" validate:"required"`
	Data     []byte `json:"data"`
}

// DownloadResponse returns a file's contents.
type DownloadResponse struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// ShareRequest grants Recipient access to Filename.
type ShareRequest struct {
	Filename  string `json:"filename" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
}

// ReceiveRequest accepts a pending share of Filename from Sender.
type ReceiveRequest struct {
	Filename string `json:"filename" validate:"required"`
	Sender   string `json:"sender" validate:"required"`
}

// RevokeRequest withdraws Recipient's access to Filename.
type RevokeRequest struct {
	Filename  string `json:"filename" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
}

// Handler implements the HTTP surface over one facade Client.
type Handler struct {
	client   *client.Client
	sessions *SessionService
}

// NewHandler creates the API handler set.
func NewHandler(c *client.Client, sessions *SessionService) *Handler {
	return &Handler{client: c, sessions: sessions}
}

// decode reads and validates a JSON request body.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		JSON(w, http.StatusBadRequest, ErrorResponse("malformed JSON body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		JSON(w, http.StatusBadRequest, ErrorResponse(err.Error()))
		return false
	}
	return true
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.client.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFacadeError(w, err)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse("failed to create session"))
		return
	}

	JSON(w, http.StatusCreated, OKResponse(TokenResponse{Token: token, Username: user.Username()}))
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.client.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFacadeError(w, err)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse("failed to create session"))
		return
	}

	JSON(w, http.StatusOK, OKResponse(TokenResponse{Token: token, Username: user.Username()}))
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims != nil {
		h.sessions.Revoke(claims.SessionID)
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	JSON(w, http.StatusOK, OKResponse(map[string]string{"username": user.Username()}))
}

// Upload handles POST /api/v1/files.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if !decode(w, r, &req) {
		return
	}

	user := userFrom(r.Context())
	if err := user.UploadFile(r.Context(), req.Filename, req.Data); err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// Download handles GET /api/v1/files/{filename}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	user := userFrom(r.Context())

	data, err := user.DownloadFile(r.Context(), filename)
	if err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(DownloadResponse{Filename: filename, Data: data}))
}

// Append handles POST /api/v1/files/append.
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if !decode(w, r, &req) {
		return
	}

	user := userFrom(r.Context())
	if err := user.AppendFile(r.Context(), req.Filename, req.Data); err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// Share handles POST /api/v1/shares.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !decode(w, r, &req) {
		return
	}

	user := userFrom(r.Context())
	if err := user.ShareFile(r.Context(), req.Filename, req.Recipient); err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// Receive handles POST /api/v1/shares/receive.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var req ReceiveRequest
	if !decode(w, r, &req) {
		return
	}

	user := userFrom(r.Context())
	if err := user.ReceiveFile(r.Context(), req.Filename, req.Sender); err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// Revoke handles POST /api/v1/shares/revoke.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req RevokeRequest
	if !decode(w, r, &req) {
		return
	}

	user := userFrom(r.Context())
	if err := user.RevokeFile(r.Context(), req.Filename, req.Recipient); err != nil {
		writeFacadeError(w, err)
		return
	}
	JSON(w, http.StatusOK, OKResponse(nil))
}

// session context plumbing, set by the session middleware in router.go.

type sessionContextKey struct{}

type sessionContext struct {
	user   *client.User
	claims *Claims
}

func withSession(ctx context.Context, user *client.User, claims *Claims) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, &sessionContext{user: user, claims: claims})
}

func userFrom(ctx context.Context) *client.User {
	sc, _ := ctx.Value(sessionContextKey{}).(*sessionContext)
	if sc == nil {
		return nil
	}
	return sc.user
}

func claimsFrom(ctx context.Context) *Claims {
	sc, _ := ctx.Value(sessionContextKey{}).(*sessionContext)
	if sc == nil {
		return nil
	}
	return sc.claims
}
