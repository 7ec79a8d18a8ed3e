package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"skein/internal/domain"
	chatModels "skein/internal/domain/models/chat"
	chatRepo "skein/internal/domain/repositories/chat"
	"skein/internal/repository/postgres"
)

// PostgresTurnRepository implements TurnRepository using PostgreSQL
type PostgresTurnRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTurnRepository creates a new PostgresTurnRepository
func NewTurnRepository(config *postgres.RepositoryConfig) chatRepo.TurnRepository {
	return &PostgresTurnRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts a turn at the tail of its conversation. Seq is computed
// and written in the same statement, so the read-increment-write cycle is
// atomic; the unique (conversation_id, seq) index turns a lost race into
// an error instead of a duplicate position. Fragments are stored as JSONB.
func (r *PostgresTurnRepository) Append(ctx context.Context, turn *chatModels.Turn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, role, fragments, model, seq, created_at)
		SELECT $1, $2, $3, $4, COALESCE(MAX(seq) + 1, 0), NOW()
		FROM %s
		WHERE conversation_id = $1
		RETURNING id, seq, created_at
	`, r.tables.Turns, r.tables.Turns)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		turn.ConversationID,
		turn.Role,
		turn.Fragments,
		turn.Model,
	).Scan(&turn.ID, &turn.Seq, &turn.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %s: %w", turn.ConversationID, domain.ErrNotFound)
		}
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("concurrent append to conversation %s: %w", turn.ConversationID, domain.ErrConflict)
		}
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// List retrieves all turns of a conversation ordered by Seq.
func (r *PostgresTurnRepository) List(ctx context.Context, conversationID string) ([]chatModels.Turn, error) {
	query := fmt.Sprintf(`
		SELECT id, conversation_id, role, fragments, model, seq, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`, r.tables.Turns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []chatModels.Turn
	for rows.Next() {
		var turn chatModels.Turn
		err := rows.Scan(
			&turn.ID,
			&turn.ConversationID,
			&turn.Role,
			&turn.Fragments,
			&turn.Model,
			&turn.Seq,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// Count returns the number of turns in a conversation.
func (r *PostgresTurnRepository) Count(ctx context.Context, conversationID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE conversation_id = $1
	`, r.tables.Turns)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, conversationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}

	return count, nil
}
