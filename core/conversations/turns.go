package conversations

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single committed utterance in a conversation. Immutable once
// appended to a Window.
type Turn struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
}

func NewTurn(role Role, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
