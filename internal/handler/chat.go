package handler

import (
	"log/slog"
	"net/http"

	chatSvc "skein/internal/domain/services/chat"
	"skein/internal/httputil"
	"skein/internal/stream"
)

// chatBody is the JSON body of a streaming chat request.
type chatBody struct {
	Turns  []chatSvc.InboundTurn `json:"turns"`
	System *string               `json:"system,omitempty"`
}

// ChatHandler serves the streaming chat endpoint.
type ChatHandler struct {
	streaming chatSvc.StreamingService
	logger    *slog.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(streaming chatSvc.StreamingService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		streaming: streaming,
		logger:    logger,
	}
}

// Chat handles POST /api/conversations/{id}/chat. The response is an SSE
// stream; errors that occur before the first event are still regular
// problem+json responses.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &chatSvc.ChatRequest{
		ConversationID: r.PathValue("id"),
		UserID:         httputil.GetUserID(r),
		Turns:          body.Turns,
		System:         body.System,
	}

	enc := stream.NewEncoder(w)
	if err := h.streaming.Chat(r.Context(), req, enc); err != nil {
		if enc.Started() {
			// The stream is already committed; the truncated event
			// sequence is all the error signal the client gets.
			h.logger.Error("stream failed after start",
				"conversation_id", req.ConversationID,
				"error", err,
			)
			return
		}
		handleError(w, err)
	}
}
