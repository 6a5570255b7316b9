package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// Snooze bounds in minutes.
const (
	minSnoozeMinutes = 1
	maxSnoozeMinutes = 1440
)

// Notes manages shared reminders. Editing rules: only the creator or an
// admin may edit or delete a note; the creator, any assignee or an admin
// may complete or snooze it. Snoozing and editing clear the trigger gate
// so the scheduler can fire the note again at its next due point.
type Notes struct {
	store  *store.FileStore
	logger zerolog.Logger
	now    func() int64
}

// NewNotes creates the note service.
func NewNotes(st *store.FileStore, logger zerolog.Logger) *Notes {
	return &Notes{
		store:  st,
		logger: logger.With().Str("component", "notes").Logger(),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// List returns notes visible to the user under the given scope, sorted
// by due date (undated notes last).
//
//	"inbox"   notes the user created or is assigned to (default)
//	"created" notes the user created
//	"all"     every note for admins; same as inbox otherwise
func (s *Notes) List(userID, scope string) []models.Note {
	notes := []models.Note{}
	s.store.View(func(doc *store.Document) {
		u := doc.UserByID(userID)
		admin := u != nil && u.IsAdmin()
		for _, n := range doc.Notes {
			switch scope {
			case "created":
				if n.CreatorID == userID {
					notes = append(notes, n)
				}
			case "all":
				if admin || n.Involves(userID) {
					notes = append(notes, n)
				}
			default:
				if n.Involves(userID) {
					notes = append(notes, n)
				}
			}
		}
	})
	sort.SliceStable(notes, func(i, j int) bool {
		return dueOrInf(notes[i].DueAt) < dueOrInf(notes[j].DueAt)
	})
	return notes
}

func dueOrInf(due *int64) int64 {
	if due == nil {
		return 1<<62 - 1
	}
	return *due
}

// Create adds a note. Text must be non-empty; assignees default to the
// creator and are deduplicated; the creator is pre-seeded into the seen
// map.
func (s *Notes) Create(creatorID, text string, assignees []string, dueAt *int64, important bool) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, fmt.Errorf("%w: empty text", ErrValidation)
	}
	finalAssignees := dedupe(assignees)
	if len(finalAssignees) == 0 {
		finalAssignees = []string{creatorID}
	}

	now := s.now()
	n := models.Note{
		ID:          models.NewID("n"),
		CreatorID:   creatorID,
		Assignees:   finalAssignees,
		Text:        text,
		Important:   important,
		DueAt:       dueAt,
		Status:      models.NoteOpen,
		SeenBy:      map[string]int64{creatorID: now},
		Attachments: []models.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Apply(func(doc *store.Document) error {
		doc.Notes = append(doc.Notes, n)
		doc.AddActivity("note_created", creatorID, map[string]any{
			"noteId":    n.ID,
			"dueAt":     n.DueAt,
			"important": n.Important,
			"assignees": n.Assignees,
		})
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Patch is a partial note update. Nil fields are untouched; DueSet
// distinguishes "set due to null" from "leave due alone".
type Patch struct {
	Text         *string
	Important    *bool
	DueSet       bool
	DueAt        *int64
	AssigneesSet bool
	Assignees    []string
}

// Update applies a patch. Creator or admin only. Any edit resets the
// trigger gate so a still-due or future due point can fire again.
func (s *Notes) Update(actorID, noteID string, patch Patch) (models.Note, error) {
	var updated models.Note
	err := s.store.Apply(func(doc *store.Document) error {
		n := doc.NoteByID(noteID)
		if n == nil {
			return ErrNotFound
		}
		if !canEdit(doc, actorID, n) {
			return ErrForbidden
		}

		if patch.Text != nil {
			n.Text = strings.TrimSpace(*patch.Text)
		}
		if patch.Important != nil {
			n.Important = *patch.Important
		}
		if patch.DueSet {
			n.DueAt = patch.DueAt
		}
		if patch.AssigneesSet {
			assignees := dedupe(patch.Assignees)
			if len(assignees) == 0 {
				assignees = []string{n.CreatorID}
			}
			n.Assignees = assignees
		}
		n.UpdatedAt = s.now()
		n.LastTriggeredAt = nil

		doc.AddActivity("note_updated", actorID, map[string]any{
			"noteId":    n.ID,
			"dueAt":     n.DueAt,
			"important": n.Important,
			"assignees": n.Assignees,
		})
		updated = *n
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return updated, nil
}

// Done marks the note completed. Terminal: status never leaves done.
// Creator, assignee or admin.
func (s *Notes) Done(actorID, noteID string) (models.Note, error) {
	var updated models.Note
	err := s.store.Apply(func(doc *store.Document) error {
		n := doc.NoteByID(noteID)
		if n == nil {
			return ErrNotFound
		}
		if !canTouch(doc, actorID, n) {
			return ErrForbidden
		}
		now := s.now()
		n.Status = models.NoteDone
		n.DoneByID = &actorID
		n.DoneAt = &now
		n.UpdatedAt = now
		doc.AddActivity("note_done", actorID, map[string]any{"noteId": n.ID})
		updated = *n
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return updated, nil
}

// Snooze delays the note's next eligible firing by the given minutes
// (1..1440) and clears the trigger gate. Creator, assignee or admin.
func (s *Notes) Snooze(actorID, noteID string, minutes int) (models.Note, error) {
	if minutes < minSnoozeMinutes || minutes > maxSnoozeMinutes {
		return models.Note{}, fmt.Errorf("%w: invalid_minutes", ErrValidation)
	}
	var updated models.Note
	err := s.store.Apply(func(doc *store.Document) error {
		n := doc.NoteByID(noteID)
		if n == nil {
			return ErrNotFound
		}
		if !canTouch(doc, actorID, n) {
			return ErrForbidden
		}
		now := s.now()
		until := now + int64(minutes)*60*1000
		n.SnoozeUntil = &until
		n.LastTriggeredAt = nil
		n.UpdatedAt = now
		doc.AddActivity("note_snoozed", actorID, map[string]any{
			"noteId":  n.ID,
			"minutes": minutes,
		})
		updated = *n
		return nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return updated, nil
}

// Delete removes the note. Creator or admin only.
func (s *Notes) Delete(actorID, noteID string) error {
	return s.store.Apply(func(doc *store.Document) error {
		n := doc.NoteByID(noteID)
		if n == nil {
			return ErrNotFound
		}
		if !canEdit(doc, actorID, n) {
			return ErrForbidden
		}
		kept := doc.Notes[:0]
		for _, existing := range doc.Notes {
			if existing.ID != noteID {
				kept = append(kept, existing)
			}
		}
		doc.Notes = kept
		doc.AddActivity("note_deleted", actorID, map[string]any{"noteId": noteID})
		return nil
	})
}

// MarkSeen stamps the user's seen time on each note they are involved
// with. Unknown ids and notes the user cannot see are skipped, not
// errors.
func (s *Notes) MarkSeen(userID string, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	now := s.now()
	return s.store.Apply(func(doc *store.Document) error {
		changed := false
		for _, id := range noteIDs {
			n := doc.NoteByID(id)
			if n == nil || !n.Involves(userID) {
				continue
			}
			n.SeenBy[userID] = now
			changed = true
		}
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
}

// canEdit: creator or admin.
func canEdit(doc *store.Document, actorID string, n *models.Note) bool {
	if n.CreatorID == actorID {
		return true
	}
	u := doc.UserByID(actorID)
	return u != nil && u.IsAdmin()
}

// canTouch: creator, assignee or admin.
func canTouch(doc *store.Document, actorID string, n *models.Note) bool {
	if n.Involves(actorID) {
		return true
	}
	u := doc.UserByID(actorID)
	return u != nil && u.IsAdmin()
}
