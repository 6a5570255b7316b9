package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/models"
)

// MessagesResponse represents the DM history response.
type MessagesResponse struct {
	Messages  []models.Message `json:"messages"`
	ClearedAt int64            `json:"clearedAt"`
}

// GetMessages returns the caller's visible DM history with another user.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	otherID := chi.URLParam(r, "otherUserId")

	msgs, clearedAt := h.conversations.MessagesWith(me.ID, otherID)
	h.JSON(w, http.StatusOK, MessagesResponse{Messages: msgs, ClearedAt: clearedAt})
}

// ClearMessages raises the caller's clear cutoff for the conversation.
// Only their own visible window shrinks.
func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	otherID := chi.URLParam(r, "otherUserId")

	if err := h.conversations.ClearDM(me.ID, otherID); err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UnreadCountsResponse represents per-sender unread counts.
type UnreadCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

// UnreadCounts returns how many unread messages the caller has, per
// sender.
func (h *Handler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	h.JSON(w, http.StatusOK, UnreadCountsResponse{Counts: h.conversations.UnreadCounts(me.ID)})
}
