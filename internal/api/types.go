package api

import "time"

// Session is a shared clipboard session as returned by the server.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"created_at"`
}

// Message is a single session message. A message carries a body, an
// attachment, or both; never neither.
type Message struct {
	ID             string `json:"id"`
	Body           string `json:"body,omitempty"`
	AttachmentID   string `json:"attachment_id,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	Sensitive      bool   `json:"sensitive"`
	CreatedAt      int64  `json:"created_at"`
}

// HasAttachment reports whether the message references an uploaded attachment.
func (m Message) HasAttachment() bool {
	return m.AttachmentID != ""
}

// Attachment types accepted by the server.
const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)

// Attachment describes an uploaded attachment.
type Attachment struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Mime      string `json:"mime"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// NewMessage returns a message stamped with the current time. The server
// assigns the ID on insert.
func NewMessage() Message {
	return Message{
		CreatedAt: time.Now().Unix(),
	}
}
