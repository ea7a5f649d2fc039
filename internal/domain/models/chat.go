package models

import "time"

// Turn roles. A conversation alternates user and assistant turns; system
// turns only appear in provider requests, never in stored history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Chat is the persisted conversation record. Turns are stored in
// chronological order and only ever extended, never reordered.
type Chat struct {
	ID        string    `json:"chat_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary is the listing projection of a chat.
type ChatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
