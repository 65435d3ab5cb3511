package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/invopop/jsonschema"

	"github.com/brown-csci1660/vaultbox/internal/client"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/metrics"
)

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET  /health                   - Liveness probe
//   - GET  /schema                   - JSON Schema of the request/response DTOs
//   - GET  /metrics                  - Prometheus metrics (when enabled)
//   - POST /api/v1/auth/register     - Account creation
//   - POST /api/v1/auth/login        - Authentication
//   - POST /api/v1/auth/logout       - Session revocation
//   - GET  /api/v1/auth/me           - Current session info
//   - POST /api/v1/files             - Upload
//   - GET  /api/v1/files/{filename}  - Download
//   - POST /api/v1/files/append      - Append
//   - POST /api/v1/shares            - Share
//   - POST /api/v1/shares/receive    - Receive
//   - POST /api/v1/shares/revoke     - Revoke
func NewRouter(c *client.Client, sessions *SessionService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := NewHandler(c, sessions)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, Response{Status: "healthy", Timestamp: time.Now().UTC()})
	})
	r.Get("/schema", schemaHandler)

	if mh := metrics.Handler(); mh != nil {
		r.Method(http.MethodGet, "/metrics", mh)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth(sessions))
				r.Post("/logout", h.Logout)
				r.Get("/me", h.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(sessionAuth(sessions))

			r.Route("/files", func(r chi.Router) {
				r.Post("/", h.Upload)
				r.Post("/append", h.Append)
				r.Get("/{filename}", h.Download)
			})

			r.Route("/shares", func(r chi.Router) {
				r.Post("/", h.Share)
				r.Post("/receive", h.Receive)
				r.Post("/revoke", h.Revoke)
			})
		})
	})

	return r
}

// sessionAuth validates the Bearer token and attaches the session's User
// handle to the request context. Missing or invalid tokens get 401.
func sessionAuth(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				JSON(w, http.StatusUnauthorized, ErrorResponse("Authorization header required"))
				return
			}

			user, claims, err := sessions.Resolve(token)
			if err != nil {
				JSON(w, http.StatusUnauthorized, ErrorResponse("invalid or expired session"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, claims)))
		})
	}
}

// extractBearerToken extracts the token from a Bearer Authorization
// header.
func extractBearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return "", false
	}
	return auth[len(prefix):], true
}

// requestLogger logs request start at DEBUG and completion at INFO with
// method, path, status, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger.Debug("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			logger.KeyRequestID, middleware.GetReqID(r.Context()),
		)

		next.ServeHTTP(ww, r)

		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.KeyDurationMs, float64(time.Since(start).Microseconds())/1000.0,
			logger.KeyRequestID, middleware.GetReqID(r.Context()),
		)
	})
}

// schemaHandler serves the JSON Schemas of every request/response DTO,
// for harnesses that generate clients or fuzz the surface.
func schemaHandler(w http.ResponseWriter, _ *http.Request) {
	reflector := &jsonschema.Reflector{DoNotReference: true}

	schemas := map[string]*jsonschema.Schema{
		"RegisterRequest":  reflector.Reflect(&RegisterRequest{}),
		"LoginRequest":     reflector.Reflect(&LoginRequest{}),
		"TokenResponse":    reflector.Reflect(&TokenResponse{}),
		"UploadRequest":    reflector.Reflect(&UploadRequest{}),
		"AppendRequest":    reflector.Reflect(&AppendRequest{}),
		"DownloadResponse": reflector.Reflect(&DownloadResponse{}),
		"ShareRequest":     reflector.Reflect(&ShareRequest{}),
		"ReceiveRequest":   reflector.Reflect(&ReceiveRequest{}),
		"RevokeRequest":    reflector.Reflect(&RevokeRequest{}),
	}

	JSON(w, http.StatusOK, OKResponse(schemas))
}
