package chat

import (
	"context"

	"skein/internal/domain/models/chat"
)

// TurnRepository is the append-only persistence gateway for turns.
type TurnRepository interface {
	// Append persists a new turn at the end of its conversation and fills
	// in ID, Seq and CreatedAt. The sequence number is assigned by the
	// store in the same statement as the insert, so serialized writers
	// always observe gap-free, strictly increasing positions. Concurrent
	// writers to one conversation contend on a unique (conversation_id,
	// seq) index; the loser gets an error instead of a duplicate position.
	Append(ctx context.Context, turn *chat.Turn) error

	// List returns all turns of a conversation ordered by Seq.
	List(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// Count returns the number of turns in a conversation.
	Count(ctx context.Context, conversationID string) (int, error)
}
