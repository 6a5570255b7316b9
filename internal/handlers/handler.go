package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store         *store.FileStore
	sessions      *auth.Sessions
	conversations *chat.Conversations
	groups        *chat.Groups
	notes         *chat.Notes
}

// NewHandler creates a new Handler with the given services.
func NewHandler(st *store.FileStore, sessions *auth.Sessions, conv *chat.Conversations, groups *chat.Groups, notes *chat.Notes) *Handler {
	return &Handler{
		store:         st,
		sessions:      sessions,
		conversations: conv,
		groups:        groups,
		notes:         notes,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// DomainError maps a chat/store error onto an HTTP response.
func (h *Handler) DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrAuthRequired):
		h.Error(w, http.StatusUnauthorized, "auth_required")
	case errors.Is(err, chat.ErrForbidden):
		h.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, chat.ErrNotFound):
		h.Error(w, http.StatusNotFound, "not_found")
	case errors.Is(err, chat.ErrEmptyMessage):
		h.Error(w, http.StatusBadRequest, "empty_message")
	case errors.Is(err, chat.ErrValidation):
		h.Error(w, http.StatusBadRequest, validationDetail(err))
	case errors.Is(err, store.ErrStoreIO):
		h.Error(w, http.StatusInternalServerError, "store_error")
	default:
		h.Error(w, http.StatusInternalServerError, "internal")
	}
}

// validationDetail strips the sentinel prefix so clients see the
// specific code, e.g. "invalid_minutes".
func validationDetail(err error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, chat.ErrValidation.Error()+": "); ok {
		return detail
	}
	return msg
}
