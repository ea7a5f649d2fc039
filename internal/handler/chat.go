package handler

import (
	"log/slog"
	"net/http"

	"parley/internal/domain/models"
	"parley/internal/domain/services"
	"parley/internal/httputil"
)

// ChatHandler handles chat HTTP requests.
// Handlers only communicate with services, never repositories.
type ChatHandler struct {
	service services.ChatService
	logger  *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service services.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// getChatResponse is the payload for fetching a single chat
type getChatResponse struct {
	Title    string        `json:"title"`
	Messages []models.Turn `json:"messages"`
}

// renameChatRequest is the payload for renaming a chat
type renameChatRequest struct {
	Title string `json:"title"`
}

// renameChatResponse confirms a rename
type renameChatResponse struct {
	Detail   string `json:"detail"`
	NewTitle string `json:"new_title"`
}

// deleteChatResponse confirms a delete
type deleteChatResponse struct {
	Detail string `json:"detail"`
}

// CreateChat creates a new chat from a title and first user message
// POST /create_chat
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.CreateChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	result, err := h.service.CreateChat(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ListChats retrieves the caller's chat summaries
// GET /list_chats
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	chats, err := h.service.ListChats(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// GetChat retrieves a chat's title and messages
// GET /get_chat/{chat_id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "chat_id", "Chat ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	chat, err := h.service.GetChat(r.Context(), userID, chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, getChatResponse{
		Title:    chat.Title,
		Messages: chat.Turns,
	})
}

// AddMessage appends a user message and returns the generated reply
// POST /add_message_to_chat/{chat_id}
func (h *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "chat_id", "Chat ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	var message models.Turn
	if err := httputil.ParseJSON(w, r, &message); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assistant, err := h.service.AppendMessage(r.Context(), userID, chatID, message)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, assistant)
}

// RenameChat updates a chat's title
// PUT /rename_chat/{chat_id}
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "chat_id", "Chat ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	var req renameChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := h.service.RenameChat(r.Context(), userID, chatID, req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, renameChatResponse{
		Detail:   "Chat renamed successfully",
		NewTitle: chat.Title,
	})
}

// DeleteChat removes a chat
// DELETE /delete_chat/{chat_id}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "chat_id", "Chat ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	if err := h.service.DeleteChat(r.Context(), userID, chatID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleteChatResponse{
		Detail: "Chat deleted successfully",
	})
}

// HealthCheck reports liveness
// GET /health
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
