package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	chatRepo "skein/internal/domain/repositories/chat"
	"skein/internal/repository/postgres"
)

// PostgresConversationRepository implements ConversationRepository using PostgreSQL
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository
func NewConversationRepository(config *postgres.RepositoryConfig) chatRepo.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new conversation and fills in ID and timestamps.
func (r *PostgresConversationRepository) Create(ctx context.Context, conv *chatModels.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, model_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		conv.UserID,
		conv.Title,
		conv.ModelID,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	return nil
}

// Get retrieves a conversation owned by userID. A conversation that exists
// but belongs to someone else is reported exactly like one that does not
// exist.
func (r *PostgresConversationRepository) Get(ctx context.Context, id, userID string) (*chatModels.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, model_id, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Conversations)

	var conv chatModels.Conversation
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.ModelID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

// List retrieves all conversations for a user, most recently active first.
func (r *PostgresConversationRepository) List(ctx context.Context, userID string) ([]chatModels.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, model_id, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []chatModels.Conversation
	for rows.Next() {
		var conv chatModels.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.ModelID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return convs, nil
}

// UpdateTitle renames a conversation.
func (r *PostgresConversationRepository) UpdateTitle(ctx context.Context, id, userID, title string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, userID, title)
	if err != nil {
		return fmt.Errorf("update conversation title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateModel changes the conversation's model. The zero-turn guard lives
// in the service layer; the repository just writes.
func (r *PostgresConversationRepository) UpdateModel(ctx context.Context, id, userID, modelID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET model_id = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, userID, modelID)
	if err != nil {
		return fmt.Errorf("update conversation model: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Touch bumps updated_at so activity ordering and the empty-conversation
// janitor see the conversation as live.
func (r *PostgresConversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET updated_at = $2 WHERE id = $1
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return nil
}

// Delete removes a conversation; turns go with it via ON DELETE CASCADE.
func (r *PostgresConversationRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id = $1 AND user_id = $2
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteEmptyBefore removes conversations with zero turns whose updated_at
// is older than the cutoff. Returns the number deleted.
func (r *PostgresConversationRepository) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s c
		WHERE c.updated_at < $1
		  AND NOT EXISTS (SELECT 1 FROM %s t WHERE t.conversation_id = c.id)
	`, r.tables.Conversations, r.tables.Turns)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete empty conversations: %w", err)
	}

	return tag.RowsAffected(), nil
}
