package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brown-csci1660/vaultbox/internal/client"
)

// ErrInvalidSession is returned for expired, malformed, or logged-out
// session tokens.
var ErrInvalidSession = errors.New("httpapi: invalid or expired session")

// Claims is the JWT payload a session token carries. The token itself
// holds no secrets: the user's key material stays server-side in the
// session table, and the SessionID is just the lookup key for it.
type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionService issues and resolves session tokens over the facade's
// User handles. Losing the process loses the sessions; clients simply
// log in again, since authentication is deterministic from credentials.
type SessionService struct {
	secret []byte
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*client.User
}

// NewSessionService creates a session service. An empty secret gets a
// random one, which invalidates tokens across restarts.
func NewSessionService(secret string, ttl time.Duration) *SessionService {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("httpapi: generating session secret: " + err.Error())
		}
	}
	return &SessionService{
		secret:   key,
		ttl:      ttl,
		sessions: make(map[string]*client.User),
	}
}

// Issue registers user as a live session and returns the signed token.
func (s *SessionService) Issue(user *client.User) (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("httpapi: generating session id: %w", err)
	}
	sid := hex.EncodeToString(idBytes)

	now := time.Now()
	claims := &Claims{
		Username:  user.Username(),
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("httpapi: signing session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[sid] = user
	s.mu.Unlock()

	return token, nil
}

// Resolve validates a token and returns the live User handle behind it.
func (s *SessionService) Resolve(token string) (*client.User, *Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil, ErrInvalidSession
	}

	s.mu.RLock()
	user, ok := s.sessions[claims.SessionID]
	s.mu.RUnlock()
	if !ok || user.Username() != claims.Username {
		return nil, nil, ErrInvalidSession
	}

	return user, claims, nil
}

// Revoke forgets a session. The token keeps verifying until expiry but
// no longer resolves to a user.
func (s *SessionService) Revoke(sid string) {
	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()
}
