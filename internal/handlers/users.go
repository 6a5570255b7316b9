package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// UserListResponse represents the user directory response.
type UserListResponse struct {
	Users []models.PublicUser `json:"users"`
}

// ListUsers returns the office directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := []models.PublicUser{}
	h.store.View(func(doc *store.Document) {
		for i := range doc.Users {
			users = append(users, doc.Users[i].Public())
		}
	})
	h.JSON(w, http.StatusOK, UserListResponse{Users: users})
}

// CreateUserRequest represents the admin user creation request.
type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// CreateUser handles admin user creation.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "internal")
		return
	}
	hash, err := auth.HashPassword(req.Password, salt)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "internal")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	role := models.RoleUser
	if req.Role == models.RoleAdmin {
		role = models.RoleAdmin
	}
	user := models.User{
		ID:          models.NewID("u"),
		Username:    req.Username,
		DisplayName: displayName,
		Role:        role,
		PwSalt:      salt,
		PwHash:      hash,
		CreatedAt:   time.Now().UnixMilli(),
	}

	err = h.store.Apply(func(doc *store.Document) error {
		if doc.UserByUsername(req.Username) != nil {
			return errUsernameTaken
		}
		doc.Users = append(doc.Users, user)
		doc.AddActivity("user_created", actor.ID, map[string]any{
			"userId":   user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
		return nil
	})
	if errors.Is(err, errUsernameTaken) {
		h.Error(w, http.StatusConflict, "username_taken")
		return
	}
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "user": user.Public()})
}

var errUsernameTaken = errors.New("username_taken")

// UpdateUserRequest represents the admin user patch request.
type UpdateUserRequest struct {
	Role        *string `json:"role"`
	DisplayName *string `json:"displayName"`
}

// UpdateUser handles admin role/display-name changes. The default admin
// can never lose the admin role.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if targetID == models.DefaultAdminID && req.Role != nil && *req.Role != models.RoleAdmin {
		h.Error(w, http.StatusBadRequest, "cannot_downgrade_default_admin")
		return
	}

	var updated models.PublicUser
	err := h.store.Apply(func(doc *store.Document) error {
		u := doc.UserByID(targetID)
		if u == nil {
			return chat.ErrNotFound
		}
		if req.Role != nil {
			if *req.Role == models.RoleAdmin {
				u.Role = models.RoleAdmin
			} else {
				u.Role = models.RoleUser
			}
		}
		if req.DisplayName != nil {
			u.DisplayName = *req.DisplayName
		}
		doc.AddActivity("user_updated", actor.ID, map[string]any{
			"userId":      u.ID,
			"role":        u.Role,
			"displayName": u.DisplayName,
		})
		updated = u.Public()
		return nil
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "user": updated})
}

// DeleteUser removes an account. Their notes are dropped, they are
// removed from every group, and groups they owned pass to the default
// admin (who is added as a member so the owner stays in the member set).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	if targetID == models.DefaultAdminID {
		h.Error(w, http.StatusBadRequest, "cannot_delete_default_admin")
		return
	}

	err := h.store.Apply(func(doc *store.Document) error {
		users := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != targetID {
				users = append(users, u)
			}
		}
		doc.Users = users

		notes := doc.Notes[:0]
		for _, n := range doc.Notes {
			if n.CreatorID != targetID && !n.HasAssignee(targetID) {
				notes = append(notes, n)
			}
		}
		doc.Notes = notes

		for i := range doc.Groups {
			g := &doc.Groups[i]
			members := g.Members[:0]
			for _, id := range g.Members {
				if id != targetID {
					members = append(members, id)
				}
			}
			g.Members = members
			if g.OwnerID == targetID {
				g.OwnerID = models.DefaultAdminID
				if !g.HasMember(g.OwnerID) {
					g.Members = append(g.Members, g.OwnerID)
				}
			}
		}

		doc.AddActivity("user_deleted", actor.ID, map[string]any{"userId": targetID})
		return nil
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.sessions.DestroyAllFor(targetID)
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ResetPasswordRequest represents the admin password reset request.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ResetPassword rotates a user's credentials and invalidates their
// sessions.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NewPassword == "" {
		h.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "internal")
		return
	}
	hash, err := auth.HashPassword(req.NewPassword, salt)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "internal")
		return
	}

	err = h.store.Apply(func(doc *store.Document) error {
		u := doc.UserByID(targetID)
		if u == nil {
			return chat.ErrNotFound
		}
		u.PwSalt = salt
		u.PwHash = hash
		doc.AddActivity("password_reset", actor.ID, map[string]any{"userId": targetID})
		return nil
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.sessions.DestroyAllFor(targetID)
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
