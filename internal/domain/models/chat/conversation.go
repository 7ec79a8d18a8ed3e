package chat

import (
	"time"
)

// DefaultTitle is the placeholder title a conversation carries until the
// first exchange completes and a real title is synthesized.
const DefaultTitle = "New chat"

// Conversation is a persisted, titled sequence of turns bound to one owner
// and one model. The model id is locked once the first turn is appended.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	ModelID   string    `json:"model_id" db:"model_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
