// Package chat implements the orchestration layer: ownership checks, turn
// ordering, and the all-or-nothing pairing of user and assistant turns.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/repositories"
	"parley/internal/domain/services"
)

const maxTitleLength = 200

// Timeouts bound each outbound call so a stalled store or provider cannot
// hold a request open indefinitely.
type Timeouts struct {
	Store    time.Duration
	Generate time.Duration
}

// chatService implements the ChatService interface
type chatService struct {
	repo      repositories.ChatRepository
	generator services.ReplyGenerator
	timeouts  Timeouts
	logger    *slog.Logger
}

// NewService creates a new chat service
func NewService(
	repo repositories.ChatRepository,
	generator services.ReplyGenerator,
	timeouts Timeouts,
	logger *slog.Logger,
) services.ChatService {
	return &chatService{
		repo:      repo,
		generator: generator,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// CreateChat generates the first assistant reply, then persists the chat
// with both turns in a single write. Nothing is stored if generation fails.
func (s *chatService) CreateChat(ctx context.Context, req *services.CreateChatRequest) (*services.CreateChatResult, error) {
	if err := validateCreateChatRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	userTurn := models.Turn{Role: models.RoleUser, Text: req.FirstMessage.Text}

	replyText, err := s.generate(ctx, userTurn.Text, nil)
	if err != nil {
		return nil, err
	}
	assistantTurn := models.Turn{Role: models.RoleAssistant, Text: replyText}

	chat := &models.Chat{
		ID:      uuid.NewString(),
		OwnerID: req.UserID,
		Title:   strings.TrimSpace(req.Title),
		Turns:   []models.Turn{userTurn, assistantTurn},
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.repo.Create(storeCtx, chat); err != nil {
		return nil, err
	}

	s.logger.Info("chat created",
		"chat_id", chat.ID,
		"title", chat.Title,
		"user_id", req.UserID,
	)

	return &services.CreateChatResult{
		ChatID:           chat.ID,
		AssistantMessage: assistantTurn,
	}, nil
}

// ListChats returns summaries of the caller's chats
func (s *chatService) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()

	return s.repo.List(storeCtx, userID)
}

// GetChat retrieves a chat after verifying ownership
func (s *chatService) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	return s.fetchOwned(ctx, userID, chatID)
}

// AppendMessage adds a user turn and its generated assistant reply. The
// two turns are appended in one atomic store operation, so concurrent
// appends to the same chat both survive and a generation failure leaves
// the stored history untouched.
func (s *chatService) AppendMessage(ctx context.Context, userID, chatID string, message models.Turn) (*models.Turn, error) {
	if err := validateUserTurn(&message); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	chat, err := s.fetchOwned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	userTurn := models.Turn{Role: models.RoleUser, Text: message.Text}

	replyText, err := s.generate(ctx, userTurn.Text, chat.Turns)
	if err != nil {
		return nil, err
	}
	assistantTurn := models.Turn{Role: models.RoleAssistant, Text: replyText}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	if _, err := s.repo.AppendTurns(storeCtx, chatID, []models.Turn{userTurn, assistantTurn}); err != nil {
		return nil, err
	}

	s.logger.Info("message appended",
		"chat_id", chatID,
		"user_id", userID,
	)

	return &assistantTurn, nil
}

// RenameChat updates a chat's title after verifying ownership
func (s *chatService) RenameChat(ctx context.Context, userID, chatID, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.fetchOwned(ctx, userID, chatID); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	chat, err := s.repo.Rename(storeCtx, chatID, title)
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat renamed",
		"chat_id", chatID,
		"title", title,
		"user_id", userID,
	)

	return chat, nil
}

// DeleteChat hard-deletes a chat after verifying ownership
func (s *chatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := s.fetchOwned(ctx, userID, chatID); err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()
	if err := s.repo.Delete(storeCtx, chatID); err != nil {
		return err
	}

	s.logger.Info("chat deleted",
		"chat_id", chatID,
		"user_id", userID,
	)

	return nil
}

// fetchOwned is the single authorization point: every operation on an
// existing chat goes through it before reading or mutating anything.
// Chat ids are UUIDs; a malformed id can never name a stored chat, so it
// is rejected as not found without a store round-trip.
func (s *chatService) fetchOwned(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	if uuid.Validate(chatID) != nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Store)
	defer cancel()

	chat, err := s.repo.Get(storeCtx, chatID)
	if err != nil {
		return nil, err
	}

	if chat.OwnerID != userID {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrForbidden)
	}

	return chat, nil
}

func (s *chatService) generate(ctx context.Context, userText string, prior []models.Turn) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeouts.Generate)
	defer cancel()

	return s.generator.Generate(genCtx, userText, prior)
}

func validateCreateChatRequest(req *services.CreateChatRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, maxTitleLength),
		),
	); err != nil {
		return err
	}
	return validateUserTurn(&req.FirstMessage)
}

func validateUserTurn(turn *models.Turn) error {
	return validation.ValidateStruct(turn,
		validation.Field(&turn.Role, validation.Required, validation.In(models.RoleUser)),
		validation.Field(&turn.Text, validation.Required),
	)
}

func validateTitle(title string) error {
	return validation.Validate(title,
		validation.Required,
		validation.Length(1, maxTitleLength),
	)
}
