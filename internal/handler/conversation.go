package handler

import (
	"log/slog"
	"net/http"

	chatModels "skein/internal/domain/models/chat"
	chatSvc "skein/internal/domain/services/chat"
	"skein/internal/httputil"
)

// ConversationHandler serves conversation CRUD endpoints.
type ConversationHandler struct {
	conversations chatSvc.ConversationService
	logger        *slog.Logger
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversations chatSvc.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        logger,
	}
}

// CreateConversation handles POST /api/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req chatSvc.CreateConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.GetUserID(r)

	conv, err := h.conversations.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// ListConversations handles GET /api/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.conversations.List(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if convs == nil {
		convs = []chatModels.Conversation{}
	}

	httputil.RespondJSON(w, http.StatusOK, convs)
}

// GetConversation handles GET /api/conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversations.Get(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// UpdateConversation handles PATCH /api/conversations/{id}
func (h *ConversationHandler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req chatSvc.UpdateConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.conversations.Update(r.Context(), r.PathValue("id"), httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/conversations/{id}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.conversations.Delete(r.Context(), r.PathValue("id"), httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTurns handles GET /api/conversations/{id}/turns
func (h *ConversationHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.conversations.ListTurns(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if turns == nil {
		turns = []chatModels.Turn{}
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}
