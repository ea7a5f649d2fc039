package services

import (
	"context"

	"parley/internal/domain/models"
)

// ChatService defines the business logic for chat operations.
// Every method takes the authenticated caller's user ID; ownership of the
// target chat is verified in one place before any read or mutation.
type ChatService interface {
	// CreateChat creates a chat from a title and the first user message,
	// generating the assistant reply before anything is persisted. The
	// record is written with both turns in a single store operation.
	CreateChat(ctx context.Context, req *CreateChatRequest) (*CreateChatResult, error)

	// ListChats returns summaries of the caller's chats.
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)

	// GetChat retrieves a chat the caller owns.
	GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error)

	// AppendMessage adds a user turn plus the generated assistant turn to
	// an existing chat. The write is all-or-nothing: if generation fails,
	// the user turn is not persisted either.
	AppendMessage(ctx context.Context, userID, chatID string, message models.Turn) (*models.Turn, error)

	// RenameChat updates a chat's title.
	RenameChat(ctx context.Context, userID, chatID, title string) (*models.Chat, error)

	// DeleteChat hard-deletes a chat. Deleting an unknown or already
	// deleted chat fails with domain.ErrNotFound.
	DeleteChat(ctx context.Context, userID, chatID string) error
}

// CreateChatRequest is the DTO for creating a new chat
type CreateChatRequest struct {
	UserID       string      `json:"-"` // Set by handler from auth context, not from request body
	Title        string      `json:"chat_title"`
	FirstMessage models.Turn `json:"first_message"`
}

// CreateChatResult is the response DTO for a created chat
type CreateChatResult struct {
	ChatID           string      `json:"chat_id"`
	AssistantMessage models.Turn `json:"assistant_message"`
}

// ReplyGenerator produces an assistant reply for a user message given the
// stored conversation history. Provider failures surface as
// *domain.GenerationError, never as reply text.
type ReplyGenerator interface {
	Generate(ctx context.Context, userText string, prior []models.Turn) (string, error)
}

// CredentialsService handles signup and password login against the
// external auth provider.
type CredentialsService interface {
	SignUp(ctx context.Context, email, password string) error
	LogIn(ctx context.Context, email, password string) (*models.Session, error)
}
