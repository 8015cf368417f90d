package chat

import "time"

// Roles a transcript message can carry. Every generated reply is stored
// under the assistant role; system instructions are never persisted.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single immutable entry in a subject transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Turn pairs a user message with the assistant reply it produced. The two
// are always appended to history together.
type Turn struct {
	UserText      string
	AssistantText string
}
