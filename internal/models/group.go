package models

// Group represents a named multi-user conversation. Members always
// contains OwnerID.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	OwnerID   string   `json:"ownerId"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// HasMember reports whether the user is currently a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// GroupMessage represents a message posted to a group. SeenBy records
// the first time each member observed it and is never overwritten.
type GroupMessage struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"groupId"`
	FromID      string           `json:"fromId"`
	Text        string           `json:"text"`
	Attachments []Attachment     `json:"attachments"`
	CreatedAt   int64            `json:"createdAt"`
	SeenBy      map[string]int64 `json:"seenBy"`
}
