package models

// ActivityCap bounds the audit log to the most recent entries; older
// entries are truncated on append.
const ActivityCap = 4000

// ActivityEntry is an append-only audit record of a mutation.
type ActivityEntry struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	ActorID string         `json:"actorId"`
	Payload map[string]any `json:"payload"`
	At      int64          `json:"at"`
}
