package store

import (
	"sort"
	"strings"
	"time"

	"github.com/eldtechnologies/chat4office/internal/models"
)

// Document is the single persisted state record. Every collection the
// backend owns lives here; it is loaded once at startup and mutated only
// through FileStore.Apply.
type Document struct {
	Users              []models.User              `json:"users"`
	Messages           []models.Message           `json:"messages"`
	DMConversations    []models.DMConversation    `json:"dmConversations"`
	Groups             []models.Group             `json:"groups"`
	GroupMessages      []models.GroupMessage      `json:"groupMessages"`
	GroupConversations []models.GroupConversation `json:"groupConversations"`
	Notes              []models.Note              `json:"notes"`
	Activity           []models.ActivityEntry     `json:"activity"`
	Settings           settingsDoc                `json:"settings"`
}

// settingsDoc wraps models.Settings with the legacy soundUrl field so
// old documents migrate cleanly on load.
type settingsDoc struct {
	models.Settings
	LegacySoundURL string `json:"soundUrl,omitempty"`
}

// NewDocument returns an empty document with defaults applied.
func NewDocument() *Document {
	doc := &Document{}
	doc.Normalize()
	return doc
}

// Normalize back-fills missing collections and fields so the rest of the
// code never has to nil-check nested maps or slices. It also migrates
// legacy field names. Idempotent; called on every load and before every
// persist.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []models.User{}
	}
	if d.Messages == nil {
		d.Messages = []models.Message{}
	}
	if d.DMConversations == nil {
		d.DMConversations = []models.DMConversation{}
	}
	if d.Groups == nil {
		d.Groups = []models.Group{}
	}
	if d.GroupMessages == nil {
		d.GroupMessages = []models.GroupMessage{}
	}
	if d.GroupConversations == nil {
		d.GroupConversations = []models.GroupConversation{}
	}
	if d.Notes == nil {
		d.Notes = []models.Note{}
	}
	if d.Activity == nil {
		d.Activity = []models.ActivityEntry{}
	}

	if d.Settings.OfficeName == "" {
		d.Settings.OfficeName = "Chat4Office"
	}
	// Legacy documents stored the reminder sound under soundUrl.
	if d.Settings.LegacySoundURL != "" && d.Settings.ReminderSoundURL == "" {
		d.Settings.ReminderSoundURL = d.Settings.LegacySoundURL
	}
	d.Settings.LegacySoundURL = ""
	if d.Settings.ReminderSoundURL == "" {
		d.Settings.ReminderSoundURL = "/sounds/notify.wav"
	}
	if d.Settings.DMSoundURL == "" {
		d.Settings.DMSoundURL = "/sounds/dm.wav"
	}
	if d.Settings.MaxUploadMb == 0 {
		d.Settings.MaxUploadMb = 15
	}

	for i := range d.Messages {
		if d.Messages[i].Attachments == nil {
			d.Messages[i].Attachments = []models.Attachment{}
		}
	}
	for i := range d.DMConversations {
		if d.DMConversations[i].ClearedAtBy == nil {
			d.DMConversations[i].ClearedAtBy = map[string]int64{}
		}
	}
	now := time.Now().UnixMilli()
	for i := range d.Groups {
		g := &d.Groups[i]
		if g.Members == nil {
			g.Members = []string{}
		}
		if g.CreatedAt == 0 {
			g.CreatedAt = now
		}
		if g.UpdatedAt == 0 {
			g.UpdatedAt = g.CreatedAt
		}
	}
	for i := range d.GroupMessages {
		gm := &d.GroupMessages[i]
		if gm.Attachments == nil {
			gm.Attachments = []models.Attachment{}
		}
		if gm.SeenBy == nil {
			gm.SeenBy = map[string]int64{}
		}
	}
	for i := range d.GroupConversations {
		if d.GroupConversations[i].ClearedAtBy == nil {
			d.GroupConversations[i].ClearedAtBy = map[string]int64{}
		}
	}
	for i := range d.Notes {
		n := &d.Notes[i]
		if n.SeenBy == nil {
			n.SeenBy = map[string]int64{}
		}
		if n.Attachments == nil {
			n.Attachments = []models.Attachment{}
		}
		if n.Status == "" {
			n.Status = models.NoteOpen
		}
	}
}

// UserByID returns the user with the given id, or nil.
func (d *Document) UserByID(id string) *models.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByUsername returns the user with the given username
// (case-insensitive), or nil.
func (d *Document) UserByUsername(username string) *models.User {
	for i := range d.Users {
		if strings.EqualFold(d.Users[i].Username, username) {
			return &d.Users[i]
		}
	}
	return nil
}

// GroupByID returns the group with the given id, or nil.
func (d *Document) GroupByID(id string) *models.Group {
	for i := range d.Groups {
		if d.Groups[i].ID == id {
			return &d.Groups[i]
		}
	}
	return nil
}

// NoteByID returns the note with the given id, or nil.
func (d *Document) NoteByID(id string) *models.Note {
	for i := range d.Notes {
		if d.Notes[i].ID == id {
			return &d.Notes[i]
		}
	}
	return nil
}

// DMKey derives the canonical conversation id for a pair of users. The
// pair is sorted first, so DMKey(a,b) == DMKey(b,a).
func DMKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "__" + b
}

// DMConversation returns the conversation record for the pair, creating
// it lazily on first access.
func (d *Document) DMConversation(a, b string) *models.DMConversation {
	key := DMKey(a, b)
	for i := range d.DMConversations {
		if d.DMConversations[i].ID == key {
			return &d.DMConversations[i]
		}
	}
	pair := []string{a, b}
	sort.Strings(pair)
	d.DMConversations = append(d.DMConversations, models.DMConversation{
		ID:          key,
		UserA:       pair[0],
		UserB:       pair[1],
		ClearedAtBy: map[string]int64{},
	})
	return &d.DMConversations[len(d.DMConversations)-1]
}

// GroupConversation returns the clear-cutoff record for a group,
// creating it lazily on first access.
func (d *Document) GroupConversation(groupID string) *models.GroupConversation {
	for i := range d.GroupConversations {
		if d.GroupConversations[i].ID == groupID {
			return &d.GroupConversations[i]
		}
	}
	d.GroupConversations = append(d.GroupConversations, models.GroupConversation{
		ID:          groupID,
		GroupID:     groupID,
		ClearedAtBy: map[string]int64{},
	})
	return &d.GroupConversations[len(d.GroupConversations)-1]
}

// AddActivity appends an audit entry and truncates the log to the most
// recent models.ActivityCap entries.
func (d *Document) AddActivity(entryType, actorID string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	d.Activity = append(d.Activity, models.ActivityEntry{
		ID:      models.NewID("a"),
		Type:    entryType,
		ActorID: actorID,
		Payload: payload,
		At:      time.Now().UnixMilli(),
	})
	if over := len(d.Activity) - models.ActivityCap; over > 0 {
		d.Activity = append([]models.ActivityEntry{}, d.Activity[over:]...)
	}
}
