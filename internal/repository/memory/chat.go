// Package memory provides an in-process ChatRepository used for tests and
// for running the server without a database (STORE_BACKEND=memory).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/repositories"
)

// ChatRepository is a map-backed conversation store. The mutex is held for
// the whole of AppendTurns so concurrent appends serialize, matching the
// atomic JSONB append of the Postgres backend.
type ChatRepository struct {
	mu    sync.RWMutex
	chats map[string]*models.Chat
	// order preserves most-recently-updated-first listing without sorting
	// timestamps that may collide within a single test run.
	order []string
}

// NewChatRepository creates an empty in-memory chat repository
func NewChatRepository() repositories.ChatRepository {
	return &ChatRepository{
		chats: make(map[string]*models.Chat),
	}
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.chats[chat.ID]; exists {
		return fmt.Errorf("chat %s: %w", chat.ID, domain.ErrConflict)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	stored := copyChat(chat)
	r.chats[chat.ID] = stored
	r.touch(chat.ID)

	return nil
}

func (r *ChatRepository) List(ctx context.Context, ownerID string) ([]models.ChatSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := []models.ChatSummary{}
	for _, id := range r.order {
		chat := r.chats[id]
		if chat.OwnerID == ownerID {
			summaries = append(summaries, models.ChatSummary{ID: chat.ID, Title: chat.Title})
		}
	}

	return summaries, nil
}

func (r *ChatRepository) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, exists := r.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	return copyChat(chat), nil
}

func (r *ChatRepository) AppendTurns(ctx context.Context, chatID string, turns []models.Turn) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, exists := r.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	chat.Turns = append(chat.Turns, turns...)
	chat.UpdatedAt = time.Now()
	r.touch(chatID)

	return copyChat(chat), nil
}

func (r *ChatRepository) Rename(ctx context.Context, chatID, title string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, exists := r.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	chat.Title = title
	chat.UpdatedAt = time.Now()
	r.touch(chatID)

	return copyChat(chat), nil
}

func (r *ChatRepository) Delete(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.chats[chatID]; !exists {
		return fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	delete(r.chats, chatID)
	for i, id := range r.order {
		if id == chatID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// touch moves chatID to the front of the recency order. Caller holds the lock.
func (r *ChatRepository) touch(chatID string) {
	for i, id := range r.order {
		if id == chatID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.order = append([]string{chatID}, r.order...)
}

// copyChat returns a deep copy so callers never share turn slices with the store.
func copyChat(chat *models.Chat) *models.Chat {
	copied := *chat
	copied.Turns = make([]models.Turn, len(chat.Turns))
	copy(copied.Turns, chat.Turns)
	return &copied
}
