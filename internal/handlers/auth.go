package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var user *models.User
	h.store.View(func(doc *store.Document) {
		if u := doc.UserByUsername(req.Username); u != nil {
			copied := *u
			user = &copied
		}
	})
	if user == nil || !auth.VerifyPassword(req.Password, user.PwSalt, user.PwHash) {
		h.Error(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := h.sessions.Create(user.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "session_failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the authenticated user's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "auth_required")
		return
	}
	h.JSON(w, http.StatusOK, user.Public())
}
