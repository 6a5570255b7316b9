package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
)

// NoteListResponse represents the note list response.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// ListNotes returns notes visible to the caller under ?scope=
// (inbox, created or all).
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	scope := r.URL.Query().Get("scope")
	h.JSON(w, http.StatusOK, NoteListResponse{Notes: h.notes.List(me.ID, scope)})
}

// CreateNoteRequest represents the note creation request.
type CreateNoteRequest struct {
	Text      string   `json:"text"`
	Assignees []string `json:"assignees"`
	DueAt     *int64   `json:"dueAt"`
	Important bool     `json:"important"`
}

// CreateNote creates a reminder note.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	n, err := h.notes.Create(me.ID, req.Text, req.Assignees, req.DueAt, req.Important)
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "note": n})
}

// UpdateNoteRequest represents the note patch request. dueAt and
// assignees distinguish "absent" from "explicitly null/empty", so the
// body is decoded twice: once for values, once for key presence.
type UpdateNoteRequest struct {
	Text      *string  `json:"text"`
	Important *bool    `json:"important"`
	DueAt     *int64   `json:"dueAt"`
	Assignees []string `json:"assignees"`
}

// UpdateNote patches a note (creator/admin only). Any edit re-arms the
// reminder trigger.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var req UpdateNoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	_, dueSet := keys["dueAt"]
	_, assigneesSet := keys["assignees"]

	n, err := h.notes.Update(me.ID, noteID, chat.Patch{
		Text:         req.Text,
		Important:    req.Important,
		DueSet:       dueSet,
		DueAt:        req.DueAt,
		AssigneesSet: assigneesSet,
		Assignees:    req.Assignees,
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "note": n})
}

// DoneNote marks a note completed.
func (h *Handler) DoneNote(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	n, err := h.notes.Done(me.ID, noteID)
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "note": n})
}

// SnoozeNoteRequest represents the snooze request.
type SnoozeNoteRequest struct {
	Minutes json.Number `json:"minutes"`
}

// SnoozeNote delays a note's next reminder by 1..1440 minutes.
func (h *Handler) SnoozeNote(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req SnoozeNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	minutes, err := strconv.Atoi(req.Minutes.String())
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid_minutes")
		return
	}

	n, err := h.notes.Snooze(me.ID, noteID, minutes)
	if err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "note": n})
}

// DeleteNote removes a note (creator/admin only).
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	if err := h.notes.Delete(me.ID, noteID); err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// MarkNotesSeenRequest represents the bulk mark-seen request.
type MarkNotesSeenRequest struct {
	NoteIDs []string `json:"noteIds"`
}

// MarkNotesSeen stamps the caller's seen time on the listed notes.
func (h *Handler) MarkNotesSeen(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetUserFromContext(r.Context())

	var req MarkNotesSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.notes.MarkSeen(me.ID, req.NoteIDs); err != nil {
		h.DomainError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
