package compose

import "time"

// Role identifies the speaker of a turn or prompt message.
type Role string

// Valid roles. The completion endpoint understands exactly these three.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one persisted message in a conversation, ordered by CreatedAt
// ascending. Turns are immutable once created; conversations are
// append-only logs.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one entry of the prompt message list sent to the completion
// endpoint. Built fresh per request, never persisted.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Flags selects which evidence sources augment the user turn. Both may be
// set at once; deep search runs last, so its rewrite wins.
type Flags struct {
	WebSearch  bool
	DeepSearch bool
}
