package models

// DMConversation is the canonical record for a pair of users. Its ID is
// derived from the sorted pair, so the conversation between A and B is
// the same record regardless of who opened it. ClearedAtBy holds a
// per-viewer cutoff: messages at or before that timestamp are hidden
// from that viewer only, never deleted.
type DMConversation struct {
	ID          string           `json:"id"`
	UserA       string           `json:"userA"`
	UserB       string           `json:"userB"`
	ClearedAtBy map[string]int64 `json:"clearedAtBy"`
}

// GroupConversation carries the per-viewer clear cutoffs for a group.
// Its ID equals the group ID.
type GroupConversation struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"groupId"`
	ClearedAtBy map[string]int64 `json:"clearedAtBy"`
}
