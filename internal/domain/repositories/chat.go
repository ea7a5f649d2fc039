package repositories

import (
	"context"

	"parley/internal/domain/models"
)

// ChatRepository is the conversation store adapter. Implementations own no
// conversation state themselves; all operations are remote calls (or the
// in-memory equivalent) and may fail with domain.ErrStoreUnavailable in
// addition to the logical errors documented per method.
type ChatRepository interface {
	// Create inserts a new chat record. Fails with domain.ErrConflict if
	// the chat ID already exists.
	Create(ctx context.Context, chat *models.Chat) error

	// List returns summaries of all chats owned by ownerID, most recently
	// updated first. An owner with no chats gets an empty slice, not nil.
	List(ctx context.Context, ownerID string) ([]models.ChatSummary, error)

	// Get retrieves a chat by ID. Fails with domain.ErrNotFound if absent.
	Get(ctx context.Context, chatID string) (*models.Chat, error)

	// AppendTurns atomically appends turns to a chat's history and returns
	// the updated record. Concurrent appends to the same chat must both
	// survive: the whole slice is appended in a single store operation.
	// Fails with domain.ErrNotFound if the chat is absent.
	AppendTurns(ctx context.Context, chatID string, turns []models.Turn) (*models.Chat, error)

	// Rename updates a chat's title and returns the updated record.
	// Fails with domain.ErrNotFound if the chat is absent.
	Rename(ctx context.Context, chatID, title string) (*models.Chat, error)

	// Delete hard-removes a chat. Fails with domain.ErrNotFound if the
	// chat is absent, including on repeated deletes of the same ID.
	Delete(ctx context.Context, chatID string) error
}
