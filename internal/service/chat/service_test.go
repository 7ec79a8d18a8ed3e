package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	"skein/internal/domain/repositories"
	chatSvc "skein/internal/domain/services/chat"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memConvRepo struct {
	mu    sync.Mutex
	convs map[string]*chatModels.Conversation
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: make(map[string]*chatModels.Conversation)}
}

func (r *memConvRepo) Create(ctx context.Context, conv *chatModels.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = uuid.New().String()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	cp := *conv
	r.convs[conv.ID] = &cp
	return nil
}

func (r *memConvRepo) Get(ctx context.Context, id, userID string) (*chatModels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	cp := *conv
	return &cp, nil
}

func (r *memConvRepo) List(ctx context.Context, userID string) ([]chatModels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chatModels.Conversation
	for _, conv := range r.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *memConvRepo) UpdateTitle(ctx context.Context, id, userID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	conv.Title = title
	return nil
}

func (r *memConvRepo) UpdateModel(ctx context.Context, id, userID, modelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	conv.ModelID = modelID
	return nil
}

func (r *memConvRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (r *memConvRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	delete(r.convs, id)
	return nil
}

func (r *memConvRepo) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, conv := range r.convs {
		if conv.UpdatedAt.Before(cutoff) {
			delete(r.convs, id)
			deleted++
		}
	}
	return deleted, nil
}

type memTurnRepo struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMemTurnRepo() *memTurnRepo {
	return &memTurnRepo{counts: make(map[string]int)}
}

func (r *memTurnRepo) Append(ctx context.Context, turn *chatModels.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	turn.ID = uuid.New().String()
	turn.Seq = r.counts[turn.ConversationID]
	r.counts[turn.ConversationID]++
	return nil
}

func (r *memTurnRepo) List(ctx context.Context, conversationID string) ([]chatModels.Turn, error) {
	return nil, nil
}

func (r *memTurnRepo) Count(ctx context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[conversationID], nil
}

type staticResolver struct {
	known map[string]bool
}

func (r *staticResolver) Resolve(modelID string) (chatSvc.ModelDescriptor, error) {
	if !r.known[modelID] {
		return chatSvc.ModelDescriptor{}, fmt.Errorf("model %s: %w", modelID, domain.ErrUnknownModel)
	}
	return chatSvc.ModelDescriptor{Kind: "test", Model: modelID}, nil
}

func (r *staticResolver) Provider(kind chatSvc.ProviderKind) (chatSvc.Provider, error) {
	return nil, fmt.Errorf("provider %s not configured: %w", kind, domain.ErrUnknownModel)
}

// passthroughTx runs the function without a real transaction; the fakes
// have no statement-level failure modes to roll back.
type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestService() (chatSvc.ConversationService, *memConvRepo, *memTurnRepo) {
	convRepo := newMemConvRepo()
	turnRepo := newMemTurnRepo()
	resolver := &staticResolver{known: map[string]bool{"model-a": true, "model-b": true}}
	return NewConversationService(convRepo, turnRepo, resolver, passthroughTx{}, "model-a", discardLogger), convRepo, turnRepo
}

func TestCreateConversation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name      string
		req       *chatSvc.CreateConversationRequest
		wantErr   error
		wantTitle string
		wantModel string
	}{
		{
			name:      "defaults to placeholder title",
			req:       &chatSvc.CreateConversationRequest{UserID: "u1", ModelID: "model-a"},
			wantTitle: chatModels.DefaultTitle,
			wantModel: "model-a",
		},
		{
			name: "explicit title is trimmed",
			req: &chatSvc.CreateConversationRequest{
				UserID:  "u1",
				ModelID: "model-a",
				Title:   strPtr("  Kitchen Renovation  "),
			},
			wantTitle: "Kitchen Renovation",
			wantModel: "model-a",
		},
		{
			name:    "unknown model rejected",
			req:     &chatSvc.CreateConversationRequest{UserID: "u1", ModelID: "ghost"},
			wantErr: domain.ErrUnknownModel,
		},
		{
			name:      "missing model falls back to the configured default",
			req:       &chatSvc.CreateConversationRequest{UserID: "u1"},
			wantTitle: chatModels.DefaultTitle,
			wantModel: "model-a",
		},
		{
			name:    "missing user rejected",
			req:     &chatSvc.CreateConversationRequest{ModelID: "model-a"},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if conv.ID == "" {
				t.Error("conversation has no id")
			}
			if conv.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", conv.Title, tt.wantTitle)
			}
			if conv.ModelID != tt.wantModel {
				t.Errorf("model = %q, want %q", conv.ModelID, tt.wantModel)
			}
		})
	}
}

func TestModelLockedAfterFirstTurn(t *testing.T) {
	svc, _, turnRepo := newTestService()

	conv, err := svc.Create(context.Background(), &chatSvc.CreateConversationRequest{
		UserID:  "u1",
		ModelID: "model-a",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Switching while empty is allowed.
	updated, err := svc.Update(context.Background(), conv.ID, "u1", &chatSvc.UpdateConversationRequest{
		ModelID: strPtr("model-b"),
	})
	if err != nil {
		t.Fatalf("Update on empty conversation: %v", err)
	}
	if updated.ModelID != "model-b" {
		t.Errorf("model = %q, want model-b", updated.ModelID)
	}

	// First turn locks the model forever.
	if err := turnRepo.Append(context.Background(), &chatModels.Turn{ConversationID: conv.ID, Role: chatModels.RoleUser}); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err = svc.Update(context.Background(), conv.ID, "u1", &chatSvc.UpdateConversationRequest{
		ModelID: strPtr("model-a"),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Update after first turn error = %v, want ErrConflict", err)
	}

	// Renaming stays allowed after the lock.
	renamed, err := svc.Update(context.Background(), conv.ID, "u1", &chatSvc.UpdateConversationRequest{
		Title: strPtr("Locked But Renamable"),
	})
	if err != nil {
		t.Fatalf("rename after lock: %v", err)
	}
	if renamed.Title != "Locked But Renamable" {
		t.Errorf("title = %q", renamed.Title)
	}
}

func TestUpdateSameModelIsNoop(t *testing.T) {
	svc, _, turnRepo := newTestService()

	conv, err := svc.Create(context.Background(), &chatSvc.CreateConversationRequest{
		UserID:  "u1",
		ModelID: "model-a",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := turnRepo.Append(context.Background(), &chatModels.Turn{ConversationID: conv.ID, Role: chatModels.RoleUser}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Re-sending the current model is not a switch and must not conflict.
	if _, err := svc.Update(context.Background(), conv.ID, "u1", &chatSvc.UpdateConversationRequest{
		ModelID: strPtr("model-a"),
	}); err != nil {
		t.Fatalf("Update with unchanged model: %v", err)
	}
}

func TestCleanupEmptySweepsStaleConversations(t *testing.T) {
	svc, convRepo, _ := newTestService()

	conv, err := svc.Create(context.Background(), &chatSvc.CreateConversationRequest{
		UserID:  "u1",
		ModelID: "model-a",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Age the conversation past the cutoff.
	convRepo.mu.Lock()
	convRepo.convs[conv.ID].UpdatedAt = time.Now().Add(-48 * time.Hour)
	convRepo.mu.Unlock()

	deleted, err := svc.CleanupEmpty(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupEmpty: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := svc.Get(context.Background(), conv.ID, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after cleanup error = %v, want ErrNotFound", err)
	}
}

func strPtr(s string) *string { return &s }
