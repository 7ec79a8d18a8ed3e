package chat

import (
	"context"
	"time"

	"skein/internal/domain/models/chat"
)

// ConversationRepository is the persistence gateway for conversations.
// Every read and update that takes a userID folds ownership into the
// lookup itself: a conversation owned by someone else behaves exactly
// like one that does not exist.
type ConversationRepository interface {
	// Create persists a new conversation and fills in ID and timestamps.
	Create(ctx context.Context, conv *chat.Conversation) error

	// Get returns the conversation, or domain.ErrNotFound.
	Get(ctx context.Context, id, userID string) (*chat.Conversation, error)

	// List returns the user's conversations, most recently active first.
	List(ctx context.Context, userID string) ([]chat.Conversation, error)

	// UpdateTitle overwrites the display title.
	UpdateTitle(ctx context.Context, id, userID, title string) error

	// UpdateModel overwrites the model id. The caller enforces the
	// zero-turn model lock before calling this.
	UpdateModel(ctx context.Context, id, userID, modelID string) error

	// Touch bumps the last-activity timestamp.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes the conversation and, via cascade, all of its turns.
	Delete(ctx context.Context, id, userID string) error

	// DeleteEmptyBefore removes conversations created before the cutoff
	// that never accumulated a turn. Returns the number deleted.
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
