package chat

import (
	"context"
	"time"

	"skein/internal/domain/models/chat"
)

// CreateConversationRequest creates a conversation. The model id must
// resolve to a configured provider at creation time.
type CreateConversationRequest struct {
	UserID  string  `json:"-"`
	Title   *string `json:"title,omitempty"`
	ModelID string  `json:"model_id"`
}

// UpdateConversationRequest renames a conversation. A model change is
// accepted only while the conversation has zero turns; after that the
// model is locked forever.
type UpdateConversationRequest struct {
	Title   *string `json:"title,omitempty"`
	ModelID *string `json:"model_id,omitempty"`
}

// ConversationService owns conversation lifecycle outside the streaming
// hot path.
type ConversationService interface {
	Create(ctx context.Context, req *CreateConversationRequest) (*chat.Conversation, error)
	Get(ctx context.Context, id, userID string) (*chat.Conversation, error)
	List(ctx context.Context, userID string) ([]chat.Conversation, error)
	Update(ctx context.Context, id, userID string, req *UpdateConversationRequest) (*chat.Conversation, error)
	Delete(ctx context.Context, id, userID string) error
	ListTurns(ctx context.Context, id, userID string) ([]chat.Turn, error)

	// CleanupEmpty deletes zero-turn conversations older than maxAge.
	CleanupEmpty(ctx context.Context, maxAge time.Duration) (int64, error)
}
