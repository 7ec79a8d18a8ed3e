// Package chat implements conversation lifecycle management.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	"skein/internal/domain/repositories"
	chatRepo "skein/internal/domain/repositories/chat"
	chatSvc "skein/internal/domain/services/chat"
)

// MaxTitleLength caps user-supplied and synthesized titles.
const MaxTitleLength = 255

// conversationService implements the ConversationService interface
type conversationService struct {
	convRepo     chatRepo.ConversationRepository
	turnRepo     chatRepo.TurnRepository
	resolver     chatSvc.ModelResolver
	txManager    repositories.TransactionManager
	defaultModel string
	logger       *slog.Logger
}

// NewConversationService creates a new conversation service. defaultModel
// is assigned to conversations created without an explicit model id.
func NewConversationService(
	convRepo chatRepo.ConversationRepository,
	turnRepo chatRepo.TurnRepository,
	resolver chatSvc.ModelResolver,
	txManager repositories.TransactionManager,
	defaultModel string,
	logger *slog.Logger,
) chatSvc.ConversationService {
	return &conversationService{
		convRepo:     convRepo,
		turnRepo:     turnRepo,
		resolver:     resolver,
		txManager:    txManager,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Create creates a conversation. An omitted title gets the placeholder,
// an omitted model id gets the configured default; the model id must
// resolve before anything is written.
func (s *conversationService) Create(ctx context.Context, req *chatSvc.CreateConversationRequest) (*chatModels.Conversation, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	modelID := req.ModelID
	if modelID == "" {
		modelID = s.defaultModel
	}

	if _, err := s.resolver.Resolve(modelID); err != nil {
		return nil, err
	}

	title := chatModels.DefaultTitle
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}

	conv := &chatModels.Conversation{
		UserID:  req.UserID,
		Title:   title,
		ModelID: modelID,
	}

	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		"id", conv.ID,
		"model", conv.ModelID,
		"user_id", req.UserID,
	)

	return conv, nil
}

// Get retrieves a conversation by ID
func (s *conversationService) Get(ctx context.Context, id, userID string) (*chatModels.Conversation, error) {
	return s.convRepo.Get(ctx, id, userID)
}

// List retrieves the user's conversations
func (s *conversationService) List(ctx context.Context, userID string) ([]chatModels.Conversation, error) {
	return s.convRepo.List(ctx, userID)
}

// Update renames a conversation and, while it is still empty, may switch
// its model. Once the first turn exists the model is locked and a switch
// attempt fails with domain.ErrConflict.
func (s *conversationService) Update(ctx context.Context, id, userID string, req *chatSvc.UpdateConversationRequest) (*chatModels.Conversation, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	conv, err := s.convRepo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// Title and model are separate statements; run them in one transaction
	// so a PATCH either applies fully or not at all. The turn count is read
	// inside the same transaction, which keeps the model lock from racing a
	// concurrent first turn.
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if err := s.convRepo.UpdateTitle(ctx, id, userID, title); err != nil {
				return err
			}
			conv.Title = title
		}

		if req.ModelID != nil && *req.ModelID != conv.ModelID {
			count, err := s.turnRepo.Count(ctx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("model is locked after the first turn: %w", domain.ErrConflict)
			}

			if _, err := s.resolver.Resolve(*req.ModelID); err != nil {
				return err
			}

			if err := s.convRepo.UpdateModel(ctx, id, userID, *req.ModelID); err != nil {
				return err
			}
			conv.ModelID = *req.ModelID
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	conv.UpdatedAt = time.Now()

	s.logger.Info("conversation updated",
		"id", id,
		"user_id", userID,
	)

	return conv, nil
}

// Delete removes a conversation and all of its turns.
func (s *conversationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.convRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("conversation deleted",
		"id", id,
		"user_id", userID,
	)

	return nil
}

// ListTurns returns a conversation's turns in order, after an ownership
// check.
func (s *conversationService) ListTurns(ctx context.Context, id, userID string) ([]chatModels.Turn, error) {
	if _, err := s.convRepo.Get(ctx, id, userID); err != nil {
		return nil, err
	}

	return s.turnRepo.List(ctx, id)
}

// CleanupEmpty deletes zero-turn conversations older than maxAge.
func (s *conversationService) CleanupEmpty(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	deleted, err := s.convRepo.DeleteEmptyBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("empty conversations cleaned up",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}

	return deleted, nil
}

func validateCreateRequest(req *chatSvc.CreateConversationRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.Length(0, MaxTitleLength)),
	)
}

func validateUpdateRequest(req *chatSvc.UpdateConversationRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(1, MaxTitleLength)),
		validation.Field(&req.ModelID, validation.Length(1, 0)),
	)
}
