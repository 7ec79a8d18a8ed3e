// Package streaming implements the chat orchestrator: the pipeline that
// takes an inbound turn list, invokes the model provider, relays deltas to
// the client, and persists the outcome.
package streaming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	chatRepo "skein/internal/domain/repositories/chat"
	chatSvc "skein/internal/domain/services/chat"
	"skein/internal/stream"
)

const maxInboundTurns = 200

// Service implements chatSvc.StreamingService.
type Service struct {
	convRepo chatRepo.ConversationRepository
	turnRepo chatRepo.TurnRepository
	resolver chatSvc.ModelResolver
	titles   chatSvc.TitleSynthesizer
	logger   *slog.Logger
}

// NewService creates the streaming orchestrator.
func NewService(
	convRepo chatRepo.ConversationRepository,
	turnRepo chatRepo.TurnRepository,
	resolver chatSvc.ModelResolver,
	titles chatSvc.TitleSynthesizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		convRepo: convRepo,
		turnRepo: turnRepo,
		resolver: resolver,
		titles:   titles,
		logger:   logger,
	}
}

// Chat runs one streaming exchange. Errors are returned only until the
// first wire event goes out; after that every failure mode ends in a
// truncated stream and a nil return. The missing terminal marker is the
// client's abort signal.
func (s *Service) Chat(ctx context.Context, req *chatSvc.ChatRequest, sink stream.Sink) error {
	if req.UserID == "" {
		return fmt.Errorf("missing user: %w", domain.ErrUnauthorized)
	}
	if req.ConversationID == "" {
		return fmt.Errorf("missing conversation id: %w", domain.ErrValidation)
	}
	if err := validateTurns(req.Turns); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	conv, err := s.convRepo.Get(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return err
	}

	// Resolve before any write or network call so an unknown model leaves
	// no trace.
	desc, err := s.resolver.Resolve(conv.ModelID)
	if err != nil {
		return err
	}
	provider, err := s.resolver.Provider(desc.Kind)
	if err != nil {
		return err
	}

	turns := normalizeTurns(req.Turns)

	// The trailing user turn is the new message; persist it now so it
	// survives even if generation fails. A write failure here is logged
	// and the exchange continues: the user already sees their message.
	if n := len(turns); n > 0 && turns[n-1].Role == chatModels.RoleUser {
		userTurn := &chatModels.Turn{
			ConversationID: conv.ID,
			Role:           chatModels.RoleUser,
			Fragments:      turns[n-1].Fragments,
		}
		if err := s.turnRepo.Append(ctx, userTurn); err != nil {
			s.logger.Error("failed to persist user turn",
				"conversation_id", conv.ID,
				"error", err,
			)
		}
	}

	genReq := &chatSvc.GenerateRequest{
		Model:    desc.Model,
		Messages: projectMessages(turns),
		System:   req.System,
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := provider.Stream(streamCtx, genReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	run := stream.NewRun(sink)
	if err := run.Begin(); err != nil {
		s.logger.Info("client gone before stream start", "conversation_id", conv.ID)
		cancel()
		go drain(chunks)
		return nil
	}

	var text strings.Builder
	clientGone := false

	for chunk := range chunks {
		if chunk.Err != nil {
			if streamCtx.Err() == nil {
				s.logger.Error("provider stream failed",
					"conversation_id", conv.ID,
					"provider", provider.Name(),
					"error", chunk.Err,
				)
			}
			// Truncate the stream; keep whatever text already arrived.
			s.persistPartial(ctx, conv, text.String())
			return nil
		}

		text.WriteString(chunk.Text)

		if clientGone {
			continue
		}
		if err := run.Delta(chunk.Text); err != nil {
			// Client disconnected. Stop the upstream request; the loop
			// drains whatever the provider already buffered.
			clientGone = true
			cancel()
		}
	}

	if clientGone {
		s.persistPartial(ctx, conv, text.String())
		return nil
	}

	if err := run.Complete("stop"); err != nil {
		s.persistPartial(ctx, conv, text.String())
		return nil
	}

	s.completeTurn(ctx, conv, text.String(), turns)
	return nil
}

// drain consumes leftover chunks so the provider goroutine can exit.
func drain(chunks <-chan chatSvc.Chunk) {
	for range chunks {
	}
}

// persistPartial stores whatever assistant text accumulated before an
// abort. Nothing is written when no delta ever arrived.
func (s *Service) persistPartial(ctx context.Context, conv *chatModels.Conversation, text string) {
	if text == "" {
		return
	}
	// The request context may already be dead; persistence still has to
	// happen.
	ctx = context.WithoutCancel(ctx)

	turn := &chatModels.Turn{
		ConversationID: conv.ID,
		Role:           chatModels.RoleAssistant,
		Fragments:      []chatModels.Fragment{{Type: chatModels.FragmentText, Text: text}},
		Model:          &conv.ModelID,
	}
	if err := s.turnRepo.Append(ctx, turn); err != nil {
		s.logger.Error("failed to persist partial assistant turn",
			"conversation_id", conv.ID,
			"error", err,
		)
		return
	}
	if err := s.convRepo.Touch(ctx, conv.ID, time.Now()); err != nil {
		s.logger.Error("failed to touch conversation", "conversation_id", conv.ID, "error", err)
	}
}

// completeTurn runs the post-stream side effects: persist the assistant
// turn, bump activity, and synthesize a title for a first exchange. The
// client already has its terminal marker, so every failure here is logged
// and swallowed.
func (s *Service) completeTurn(ctx context.Context, conv *chatModels.Conversation, text string, turns []chatSvc.InboundTurn) {
	if text == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	turn := &chatModels.Turn{
		ConversationID: conv.ID,
		Role:           chatModels.RoleAssistant,
		Fragments:      []chatModels.Fragment{{Type: chatModels.FragmentText, Text: text}},
		Model:          &conv.ModelID,
	}
	if err := s.turnRepo.Append(ctx, turn); err != nil {
		s.logger.Error("failed to persist assistant turn",
			"conversation_id", conv.ID,
			"error", err,
		)
		return
	}

	if err := s.convRepo.Touch(ctx, conv.ID, time.Now()); err != nil {
		s.logger.Error("failed to touch conversation", "conversation_id", conv.ID, "error", err)
	}

	// Seq 1 means this is the first assistant turn: the first exchange
	// just finished and the conversation still carries its placeholder
	// title.
	if turn.Seq != 1 {
		return
	}

	userText := firstUserText(turns)
	title, err := s.titles.Synthesize(ctx, userText, text)
	if err != nil {
		s.logger.Warn("title synthesis failed", "conversation_id", conv.ID, "error", err)
		return
	}
	if title == "" {
		return
	}

	if err := s.convRepo.UpdateTitle(ctx, conv.ID, conv.UserID, title); err != nil {
		s.logger.Warn("failed to store synthesized title", "conversation_id", conv.ID, "error", err)
		return
	}

	s.logger.Info("conversation titled", "conversation_id", conv.ID, "title", title)
}

// validateTurns rejects structurally broken turn lists before anything is
// written or sent upstream.
func validateTurns(turns []chatSvc.InboundTurn) error {
	if len(turns) == 0 {
		return fmt.Errorf("at least one turn is required")
	}
	if len(turns) > maxInboundTurns {
		return fmt.Errorf("too many turns (max %d)", maxInboundTurns)
	}

	for i, t := range turns {
		switch t.Role {
		case chatModels.RoleUser, chatModels.RoleAssistant, chatModels.RoleSystem:
		default:
			return fmt.Errorf("turn %d: unknown role %q", i, t.Role)
		}
	}

	return nil
}

// normalizeTurns folds the legacy flat Content field into a single text
// fragment so the rest of the pipeline only sees fragments.
func normalizeTurns(turns []chatSvc.InboundTurn) []chatSvc.InboundTurn {
	out := make([]chatSvc.InboundTurn, len(turns))
	for i, t := range turns {
		if len(t.Fragments) == 0 && t.Content != nil && *t.Content != "" {
			t.Fragments = []chatModels.Fragment{{Type: chatModels.FragmentText, Text: *t.Content}}
		}
		out[i] = t
	}
	return out
}

// projectMessages flattens turns into the role+text shape providers
// accept. Turns that flatten to nothing are dropped.
func projectMessages(turns []chatSvc.InboundTurn) []chatSvc.Message {
	var msgs []chatSvc.Message
	for _, t := range turns {
		text := chatModels.FlattenText(t.Fragments)
		if text == "" {
			continue
		}
		msgs = append(msgs, chatSvc.Message{Role: t.Role, Text: text})
	}
	return msgs
}

// firstUserText returns the flattened text of the first user turn.
func firstUserText(turns []chatSvc.InboundTurn) string {
	for _, t := range turns {
		if t.Role == chatModels.RoleUser {
			if text := chatModels.FlattenText(t.Fragments); text != "" {
				return text
			}
		}
	}
	return ""
}
