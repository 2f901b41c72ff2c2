package session

import "time"

// Role identifies who spoke a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one retained conversation thread.
type Session struct {
	ID        string
	Title     string
	Messages  []Turn // conversational order, never reordered
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Session) clone() Session {
	c := s
	c.Messages = cloneTurns(s.Messages)
	return c
}

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
