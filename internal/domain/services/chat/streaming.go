package chat

import (
	"context"

	"skein/internal/domain/models/chat"
	"skein/internal/stream"
)

// InboundTurn is one turn as supplied by the client. Content is a legacy
// flat text field older clients still send; it is normalized into a single
// text fragment when Fragments is empty. Fragments wins when both are set.
type InboundTurn struct {
	Role      string          `json:"role"`
	Fragments []chat.Fragment `json:"fragments,omitempty"`
	Content   *string         `json:"content,omitempty"`
}

// ChatRequest is one inbound chat call. ConversationID arrives out-of-band
// from the message payload (the URL path) and always wins over any id a
// client embeds in the body.
type ChatRequest struct {
	ConversationID string
	UserID         string
	Turns          []InboundTurn
	System         *string
}

// StreamingService is the chat orchestrator: it sequences persistence,
// provider invocation, wire encoding and completion side effects for one
// request.
//
// Chat returns an error only before the first wire event is written; those
// map to structured HTTP error responses. Once the stream has started, all
// failures are handled internally: the event sequence is truncated (no
// text-end / finish / terminal marker) and the call returns nil.
type StreamingService interface {
	Chat(ctx context.Context, req *ChatRequest, sink stream.Sink) error
}
