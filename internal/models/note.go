package models

// Note status values. Done is terminal.
const (
	NoteOpen = "open"
	NoteDone = "done"
)

// Note is a shared reminder. LastTriggeredAt is the trigger gate: while
// set, the scheduler will not fire the note again. Editing the due
// date/assignees or snoozing clears it so a future due point can fire.
type Note struct {
	ID              string           `json:"id"`
	CreatorID       string           `json:"creatorId"`
	Assignees       []string         `json:"assignees"`
	Text            string           `json:"text"`
	Important       bool             `json:"important"`
	DueAt           *int64           `json:"dueAt"`
	Status          string           `json:"status"`
	SnoozeUntil     *int64           `json:"snoozeUntil"`
	LastTriggeredAt *int64           `json:"lastTriggeredAt"`
	SeenBy          map[string]int64 `json:"seenBy"`
	Attachments     []Attachment     `json:"attachments"`
	CreatedAt       int64            `json:"createdAt"`
	UpdatedAt       int64            `json:"updatedAt"`
	DoneByID        *string          `json:"doneById"`
	DoneAt          *int64           `json:"doneAt"`
}

// HasAssignee reports whether the user is assigned to the note.
func (n *Note) HasAssignee(userID string) bool {
	for _, id := range n.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// Involves reports whether the user created the note or is assigned to it.
func (n *Note) Involves(userID string) bool {
	return n.CreatorID == userID || n.HasAssignee(userID)
}
