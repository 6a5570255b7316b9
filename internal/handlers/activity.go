package handlers

import (
	"net/http"
	"strconv"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// ActivityResponse represents the audit log response, newest first.
type ActivityResponse struct {
	Items []models.ActivityEntry `json:"items"`
}

// Activity returns the most recent audit entries (admin only).
// ?limit= is clamped to 1..500, default 200.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			limit = v
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	items := []models.ActivityEntry{}
	h.store.View(func(doc *store.Document) {
		entries := doc.Activity
		if len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
		for i := len(entries) - 1; i >= 0; i-- {
			items = append(items, entries[i])
		}
	})
	h.JSON(w, http.StatusOK, ActivityResponse{Items: items})
}
