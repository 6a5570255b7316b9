package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
)

// GroupListResponse represents the caller's group list.
type GroupListResponse struct {
	Groups []models.Group `json:"groups"`
}

// ListGroups returns every group the caller belongs to.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	h.JSON(w, http.StatusOK, GroupListResponse{Groups: h.groups.ListFor(me.ID)})
}

// CreateGroupRequest represents the group creation request.
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateGroup creates a group owned by the caller.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	g, err := h.groups.Create(me.ID, req.Name, req.Members)
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "group": g})
}

// UpdateGroupRequest represents the group patch request.
type UpdateGroupRequest struct {
	Name          *string  `json:"name"`
	AddMembers    []string `json:"addMembers"`
	RemoveMembers []string `json:"removeMembers"`
}

// UpdateGroup renames a group or adjusts its membership (owner/admin
// only).
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	groupID := chi.URLParam(r, "id")

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	g, err := h.groups.Update(me.ID, groupID, chat.UpdateRequest{
		Name:          req.Name,
		AddMembers:    req.AddMembers,
		RemoveMembers: req.RemoveMembers,
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "group": g})
}

// GroupMessagesResponse represents the group history response.
type GroupMessagesResponse struct {
	Messages  []models.GroupMessage `json:"messages"`
	ClearedAt int64                 `json:"clearedAt"`
}

// GetGroupMessages returns the caller's visible window of a group's
// history (members only).
func (h *Handler) GetGroupMessages(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	groupID := chi.URLParam(r, "groupId")

	msgs, clearedAt, err := h.conversations.GroupMessages(me.ID, groupID)
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, GroupMessagesResponse{Messages: msgs, ClearedAt: clearedAt})
}

// ClearGroupMessages raises the caller's clear cutoff for the group.
func (h *Handler) ClearGroupMessages(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	groupID := chi.URLParam(r, "groupId")

	if err := h.conversations.ClearGroup(me.ID, groupID); err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
