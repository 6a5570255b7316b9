package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware resolves the session cookie to a user record.
type AuthMiddleware struct {
	store    *store.FileStore
	sessions *auth.Sessions
}

// NewAuthMiddleware creates a session auth middleware.
func NewAuthMiddleware(st *store.FileStore, sessions *auth.Sessions) *AuthMiddleware {
	return &AuthMiddleware{store: st, sessions: sessions}
}

// RequireAuth rejects requests without a valid session and binds the
// resolved user to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.resolve(r)
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "auth_required")
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin users. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "auth_required")
			return
		}
		if !user.IsAdmin() {
			jsonError(w, http.StatusForbidden, "admin_required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolve returns the user bound to the request's session cookie, or nil.
func (m *AuthMiddleware) resolve(r *http.Request) *models.User {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	userID, ok := m.sessions.Lookup(cookie.Value)
	if !ok {
		return nil
	}
	var user *models.User
	m.store.View(func(doc *store.Document) {
		if u := doc.UserByID(userID); u != nil {
			copied := *u
			user = &copied
		}
	})
	return user
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUserFromContext retrieves the authenticated user from the request
// context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
