package domain

import "time"

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Turn is one role-tagged message in a session's history.
// Turns are immutable once stored.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn returns an unsaved turn; the store assigns ID and timestamp.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// SessionOrDefault maps an empty session ID to DefaultSessionID.
func SessionOrDefault(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}
