package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// SettingsResponse represents the settings response.
type SettingsResponse struct {
	Settings models.Settings `json:"settings"`
}

// GetSettings returns the office-wide settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	h.store.View(func(doc *store.Document) {
		settings = doc.Settings.Settings
	})
	h.JSON(w, http.StatusOK, SettingsResponse{Settings: settings})
}

// UpdateSettingsRequest represents the admin settings patch. Nil fields
// are untouched.
type UpdateSettingsRequest struct {
	OfficeName       *string `json:"officeName"`
	ReminderSoundURL *string `json:"reminderSoundUrl"`
	DMSoundURL       *string `json:"dmSoundUrl"`
	MaxUploadMb      *int    `json:"maxUploadMb"`
}

// UpdateSettings handles admin settings changes. MaxUploadMb is clamped
// to 1..50.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var updated models.Settings
	err := h.store.Apply(func(doc *store.Document) error {
		if req.OfficeName != nil {
			doc.Settings.OfficeName = *req.OfficeName
		}
		if req.ReminderSoundURL != nil {
			doc.Settings.ReminderSoundURL = *req.ReminderSoundURL
		}
		if req.DMSoundURL != nil {
			doc.Settings.DMSoundURL = *req.DMSoundURL
		}
		if req.MaxUploadMb != nil {
			mb := *req.MaxUploadMb
			if mb < 1 {
				mb = 1
			}
			if mb > 50 {
				mb = 50
			}
			doc.Settings.MaxUploadMb = mb
		}
		doc.AddActivity("settings_updated", actor.ID, map[string]any{
			"officeName":       doc.Settings.OfficeName,
			"reminderSoundUrl": doc.Settings.ReminderSoundURL,
			"dmSoundUrl":       doc.Settings.DMSoundURL,
			"maxUploadMb":      doc.Settings.MaxUploadMb,
		})
		updated = doc.Settings.Settings
		return nil
	})
	if err != nil {
		h.DomainError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"ok": true, "settings": updated})
}
