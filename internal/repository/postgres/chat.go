package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/repositories"
)

const tableChats = "chats"

// PostgresChatRepository implements the ChatRepository interface using PostgreSQL.
// Turns live in a JSONB column; appends use JSONB array concatenation so a
// single UPDATE extends the history atomically under the row lock. Two
// concurrent appends to the same chat both survive.
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewChatRepository creates a new PostgresChatRepository
func NewChatRepository(pool *pgxpool.Pool, logger *slog.Logger) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   pool,
		logger: logger,
	}
}

// Create inserts a new chat record with its initial turns
func (r *PostgresChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	turns, err := marshalTurns(chat.Turns)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, owner_id, title, turns)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING created_at, updated_at
	`, tableChats)

	err = r.pool.QueryRow(ctx, query,
		chat.ID,
		chat.OwnerID,
		chat.Title,
		turns,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("chat %s: %w", chat.ID, domain.ErrConflict)
		}
		return storeFault("create chat", err)
	}

	return nil
}

// List retrieves summaries of all chats owned by ownerID, newest first
func (r *PostgresChatRepository) List(ctx context.Context, ownerID string) ([]models.ChatSummary, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, title
		FROM %s
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, tableChats)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, storeFault("list chats", err)
	}
	defer rows.Close()

	var chats []models.ChatSummary
	for rows.Next() {
		var chat models.ChatSummary
		if err := rows.Scan(&chat.ID, &chat.Title); err != nil {
			return nil, storeFault("scan chat summary", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, storeFault("iterate chats", err)
	}

	// Return empty slice instead of nil
	if chats == nil {
		chats = []models.ChatSummary{}
	}

	return chats, nil
}

// Get retrieves a chat by ID
func (r *PostgresChatRepository) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, owner_id, title, turns, created_at, updated_at
		FROM %s
		WHERE chat_id = $1
	`, tableChats)

	return r.scanChat(r.pool.QueryRow(ctx, query, chatID), chatID, "get chat")
}

// AppendTurns appends turns to a chat's history in a single atomic UPDATE
func (r *PostgresChatRepository) AppendTurns(ctx context.Context, chatID string, turns []models.Turn) (*models.Chat, error) {
	payload, err := marshalTurns(turns)
	if err != nil {
		return nil, fmt.Errorf("append turns: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET turns = turns || $2::jsonb, updated_at = now()
		WHERE chat_id = $1
		RETURNING chat_id, owner_id, title, turns, created_at, updated_at
	`, tableChats)

	return r.scanChat(r.pool.QueryRow(ctx, query, chatID, payload), chatID, "append turns")
}

// Rename updates a chat's title
func (r *PostgresChatRepository) Rename(ctx context.Context, chatID, title string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, updated_at = now()
		WHERE chat_id = $1
		RETURNING chat_id, owner_id, title, turns, created_at, updated_at
	`, tableChats)

	return r.scanChat(r.pool.QueryRow(ctx, query, chatID, title), chatID, "rename chat")
}

// Delete hard-removes a chat
func (r *PostgresChatRepository) Delete(ctx context.Context, chatID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, tableChats)

	result, err := r.pool.Exec(ctx, query, chatID)
	if err != nil {
		return storeFault("delete chat", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	return nil
}

// rowScanner matches both pgx.Row and pgxpool row results
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresChatRepository) scanChat(row rowScanner, chatID, op string) (*models.Chat, error) {
	var chat models.Chat
	var raw []byte

	err := row.Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&raw,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, storeFault(op, err)
	}

	if err := json.Unmarshal(raw, &chat.Turns); err != nil {
		return nil, fmt.Errorf("%s: decode turns: %w", op, err)
	}
	if chat.Turns == nil {
		chat.Turns = []models.Turn{}
	}

	return &chat, nil
}

func marshalTurns(turns []models.Turn) (string, error) {
	if turns == nil {
		turns = []models.Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("encode turns: %w", err)
	}
	return string(data), nil
}
