package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/middleware"
	"github.com/Nick-ui911/Nova-AI/internal/models"
	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// ChatOrchestrator defines the chat operations the handler needs.
// Implemented by *services.ChatService and mocked in tests.
type ChatOrchestrator interface {
	SendMessage(ctx context.Context, userID, chatID uuid.UUID, message string) (*services.ChatReply, error)
	ListSessions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ChatSummary, error)
	CountSessions(ctx context.Context, userID uuid.UUID) (int64, error)
	GetMessages(ctx context.Context, userID, chatID uuid.UUID) ([]models.MessageView, error)
	DeleteSession(ctx context.Context, userID, chatID uuid.UUID) error
}

// ChatHandler handles the chat HTTP surface. All routes are registered
// behind RequireUser, so every request carries an authenticated identity
// and ownership checks run against it.
type ChatHandler struct {
	chat ChatOrchestrator
}

// NewChatHandler creates a new chat handler.
//
// Example:
//
//	chatHandler := handlers.NewChatHandler(chatSvc)
//	r.Get("/api/chat", chatHandler.List)
//	r.Post("/api/chat", chatHandler.Send)
func NewChatHandler(chat ChatOrchestrator) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type sendRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// List returns the authenticated user's chat sessions, newest first.
//
// Without query parameters the full list is returned as a plain array,
// which is what the chat sidebar consumes. With `page`/`page_size`
// parameters the response switches to the paginated envelope.
//
// Responses:
//   - 200 [ {id, title, createdAt}, ... ]
//   - 200 {data, pagination} when page parameters are present
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if utils.HasPageParams(r) {
		h.listPage(w, r, identity.ID)
		return
	}

	summaries, err := h.chat.ListSessions(r.Context(), identity.ID, 0, -1)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID.String()).Msg("Failed to list chat sessions")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, summaries)
}

func (h *ChatHandler) listPage(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	params := utils.ParsePageParams(r)

	summaries, err := h.chat.ListSessions(r.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list chat sessions")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	total, err := h.chat.CountSessions(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to count chat sessions")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(summaries, params, total))
}

// Send runs one chat turn: persist the user message, generate the AI
// reply, persist it, and return both the session ID and the reply text.
// Omitting chatId (or sending an empty one) starts a new session titled
// from the message.
//
// Request body: {"message": "...", "chatId": "<uuid, optional>"}
//
// Responses:
//   - 200 {"chatId": "...", "reply": "..."}
//   - 400 "Message is required" on an empty message
//   - 400 "Invalid chat ID" on an unparseable chatId
//   - 403 "Forbidden" when the session is missing or owned by someone else
//   - 500 "Internal server error" when storage or the AI provider fails
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	chatID := uuid.Nil
	if req.ChatID != "" {
		parsed, err := uuid.Parse(req.ChatID)
		if err != nil {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid chat ID")
			return
		}
		chatID = parsed
	}

	reply, err := h.chat.SendMessage(r.Context(), identity.ID, chatID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			utils.RespondWithError(w, r, http.StatusBadRequest, "Message is required")
		case errors.Is(err, services.ErrForbidden):
			utils.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
		default:
			// Storage and provider failures alike; the client learns
			// nothing about which piece fell over.
			log.Error().Err(err).Str("user_id", identity.ID.String()).Msg("Chat turn failed")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, reply)
}

// Messages returns the full message history of one session, oldest first.
//
// Responses:
//   - 200 [ {id, role, content, createdAt}, ... ]
//   - 400 "Invalid chat ID" on an unparseable path ID
//   - 403 "Forbidden" when the session is missing or owned by someone else
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	messages, err := h.chat.GetMessages(r.Context(), identity.ID, chatID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			utils.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
			return
		}
		log.Error().Err(err).Str("chat_id", chatID.String()).Msg("Failed to load messages")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, messages)
}

// Delete removes one session and all its messages.
//
// Responses:
//   - 200 {"success": true}
//   - 400 "Invalid chat ID" on an unparseable path ID
//   - 403 "Forbidden" when the session is missing or owned by someone else
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	if err := h.chat.DeleteSession(r.Context(), identity.ID, chatID); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			utils.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
			return
		}
		log.Error().Err(err).Str("chat_id", chatID.String()).Msg("Failed to delete chat session")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, deleteResponse{Success: true})
}
