package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// CookieName carries the session token on browser clients.
const CookieName = "c4o_session"

const tokenLen = 32

// Sessions is an in-memory token -> user id map. Tokens are opaque
// random values; they do not survive a process restart, which matches
// the single-process deployment model.
type Sessions struct {
	byToken *xsync.MapOf[string, string]
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byToken: xsync.NewMapOf[string, string]()}
}

// Create issues a new session token for the user.
func (s *Sessions) Create(userID string) (string, error) {
	raw := make([]byte, tokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: session token: %w", err)
	}
	token := hex.EncodeToString(raw)
	s.byToken.Store(token, userID)
	return token, nil
}

// Lookup resolves a token to a user id.
func (s *Sessions) Lookup(token string) (string, bool) {
	return s.byToken.Load(token)
}

// Destroy invalidates a token. Unknown tokens are a no-op.
func (s *Sessions) Destroy(token string) {
	s.byToken.Delete(token)
}

// DestroyAllFor invalidates every session of the user, e.g. after the
// account is deleted or its password reset.
func (s *Sessions) DestroyAllFor(userID string) {
	s.byToken.Range(func(token, uid string) bool {
		if uid == userID {
			s.byToken.Delete(token)
		}
		return true
	})
}
