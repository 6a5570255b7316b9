package chat

// Push event names (server -> live connection).
const (
	EventDMNew       = "dm_new"
	EventDMRead      = "dm_read"
	EventDMCounts    = "dm_counts_changed"
	EventGroupNew    = "group_new"
	EventGroupSeen   = "group_seen"
	EventReminderDue = "reminder_due"
)

// DMReadPayload notifies the original sender that their messages were
// read.
type DMReadPayload struct {
	ReaderID string `json:"readerId"`
	OtherID  string `json:"otherId"`
	ReadAt   int64  `json:"readAt"`
}

// GroupSeenPayload notifies a whole group that a member caught up.
type GroupSeenPayload struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	At      int64  `json:"at"`
}

// ReminderDuePayload notifies an assignee that a note came due.
type ReminderDuePayload struct {
	NoteID string `json:"noteId"`
}
