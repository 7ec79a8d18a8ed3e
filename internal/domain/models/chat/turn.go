package chat

import (
	"strings"
	"time"
)

// Turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// FragmentType identifies the kind of content a fragment holds.
type FragmentType string

// Fragment types. Only text fragments are populated today; the list exists
// so non-text content can be stored without a schema change.
const (
	FragmentText FragmentType = "text"
)

// Fragment is one typed piece of a turn's ordered content.
type Fragment struct {
	Type FragmentType `json:"type"`
	Text string       `json:"text,omitempty"`
}

// Turn is one role-tagged message within a conversation, immutable once
// written. Seq is server-assigned, unique and strictly increasing per
// conversation, and is the primary ordering key (not the timestamp).
type Turn struct {
	ID             string     `json:"id" db:"id"`
	ConversationID string     `json:"conversation_id" db:"conversation_id"`
	Role           string     `json:"role" db:"role"`
	Fragments      []Fragment `json:"fragments" db:"fragments"`
	Model          *string    `json:"model,omitempty" db:"model"` // set only for assistant turns
	Seq            int        `json:"seq" db:"seq"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// FlattenText concatenates all text fragments in order. Non-text fragments
// are silently dropped at this boundary; providers only see role + text.
func FlattenText(fragments []Fragment) string {
	var sb strings.Builder
	for _, f := range fragments {
		if f.Type == FragmentText {
			sb.WriteString(f.Text)
		}
	}
	return sb.String()
}
