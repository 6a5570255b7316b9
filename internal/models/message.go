package models

// Attachment is a reference to an uploaded file carried by a message.
type Attachment struct {
	URL  string `json:"url"`
	Mime string `json:"mime"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Message represents a direct message between two users. Immutable once
// written, except ReadAt which moves null -> timestamp exactly once.
type Message struct {
	ID          string       `json:"id"`
	FromID      string       `json:"fromId"`
	ToID        string       `json:"toId"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   int64        `json:"createdAt"` // Unix ms
	ReadAt      *int64       `json:"readAt"`
}
