package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/database"
	"github.com/Nick-ui911/Nova-AI/internal/models"
	"github.com/Nick-ui911/Nova-AI/pkg/cache"
)

// Title derivation rules for new chat sessions. A first message shorter
// than titleMinRunes is too thin to describe the conversation, so the
// placeholder is used; anything longer is clipped to titleMaxRunes.
const (
	titleMinRunes    = 10
	titleMaxRunes    = 40
	placeholderTitle = "New Chat"
)

var (
	// ErrForbidden is returned when a user touches a chat session they do
	// not own. Missing sessions map here too so responses never reveal
	// whether a guessed ID exists.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyMessage is returned when a chat turn carries no message text.
	ErrEmptyMessage = errors.New("empty message")
)

// ChatStore defines the persistence operations the orchestrator needs.
// Implemented by *database.PostgresDB and mocked in tests.
type ChatStore interface {
	CreateChatSession(ctx context.Context, userID uuid.UUID, title string) (*models.ChatSession, error)
	GetChatSession(ctx context.Context, chatID uuid.UUID) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ChatSession, error)
	CountChatSessions(ctx context.Context, userID uuid.UUID) (int64, error)
	AppendMessage(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	DeleteChatSession(ctx context.Context, chatID uuid.UUID) error
}

// ChatReply is the result of one chat turn.
type ChatReply struct {
	ChatID uuid.UUID `json:"chatId"`
	Reply  string    `json:"reply"`
}

// ChatService orchestrates chat turns: it resolves or creates the
// session, persists the user message, calls the completion provider,
// and persists the AI reply.
//
// A turn is not transactional. If the provider call fails after the user
// message was stored, the message stays; the user retries and the
// conversation continues. This trades atomicity for never losing what
// the user typed.
type ChatService struct {
	store    ChatStore
	provider CompletionProvider

	listCache *cache.Cache  // optional; caches full session lists
	listTTL   time.Duration // TTL for cached session lists

	// OnMessageStored, if set, is invoked with the author role after
	// every persisted message.
	OnMessageStored func(role string)
}

// NewChatService creates the chat orchestrator. listCache may be nil to
// disable session-list caching.
//
// Example:
//
//	chatSvc := services.NewChatService(db, gemini, appCache, cfg.Cache.UserTTL)
//	chatSvc.OnMessageStored = middleware.IncrementChatMessages
func NewChatService(store ChatStore, provider CompletionProvider, listCache *cache.Cache, listTTL time.Duration) *ChatService {
	return &ChatService{
		store:     store,
		provider:  provider,
		listCache: listCache,
		listTTL:   listTTL,
	}
}

// SendMessage runs one chat turn for a user.
//
// With chatID == uuid.Nil a new session is created, titled from the
// message. With a chatID set, the session must exist and belong to the
// user; otherwise ErrForbidden is returned and nothing is persisted.
//
// On success exactly two messages were appended: the user message, then
// the AI reply. The provider receives only the current message text.
//
// Example:
//
//	reply, err := chatSvc.SendMessage(ctx, user.ID, uuid.Nil, "Explain goroutines")
//	// reply.ChatID is the new session, reply.Reply the AI answer
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID uuid.UUID, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var session *models.ChatSession
	var err error

	if chatID == uuid.Nil {
		session, err = s.store.CreateChatSession(ctx, userID, deriveTitle(message))
		if err != nil {
			return nil, fmt.Errorf("failed to create chat session: %w", err)
		}
		s.invalidateList(ctx, userID)
	} else {
		session, err = s.ownedSession(ctx, userID, chatID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.store.AppendMessage(ctx, session.ID, models.RoleUser, message); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}
	s.notifyStored(models.RoleUser)

	reply, err := s.provider.Complete(ctx, message)
	if err != nil {
		// The user message stays; the client retries the turn.
		log.Error().
			Err(err).
			Str("chat_id", session.ID.String()).
			Msg("Completion provider call failed")
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	if _, err := s.store.AppendMessage(ctx, session.ID, models.RoleAI, reply); err != nil {
		return nil, fmt.Errorf("failed to store AI reply: %w", err)
	}
	s.notifyStored(models.RoleAI)

	return &ChatReply{
		ChatID: session.ID,
		Reply:  reply,
	}, nil
}

// ListSessions returns a user's chat sessions newest first.
// Pass limit < 0 for the full list; the full list is served through the
// cache when one is configured.
func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ChatSummary, error) {
	if limit < 0 && s.listCache != nil {
		var summaries []models.ChatSummary
		err := s.listCache.GetOrSet(ctx, cache.ChatListKey(userID), s.listTTL, &summaries, func() (interface{}, error) {
			return s.loadSummaries(ctx, userID, 0, -1)
		})
		if err == nil {
			return summaries, nil
		}
		// Cache trouble degrades to a direct read.
		log.Warn().Err(err).Msg("Chat list cache unavailable, reading from database")
	}

	return s.loadSummaries(ctx, userID, offset, limit)
}

// CountSessions returns the total number of sessions the user owns.
func (s *ChatService) CountSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.CountChatSessions(ctx, userID)
}

// GetMessages returns all messages of a session the user owns, oldest
// first. Returns ErrForbidden if the session is missing or foreign.
func (s *ChatService) GetMessages(ctx context.Context, userID, chatID uuid.UUID) ([]models.MessageView, error) {
	if _, err := s.ownedSession(ctx, userID, chatID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	views := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].View())
	}
	return views, nil
}

// DeleteSession deletes a session the user owns together with all its
// messages. Returns ErrForbidden if the session is missing or foreign.
func (s *ChatService) DeleteSession(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := s.ownedSession(ctx, userID, chatID); err != nil {
		return err
	}

	if err := s.store.DeleteChatSession(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}

	s.invalidateList(ctx, userID)
	return nil
}

// ownedSession loads a session and verifies ownership. Missing and
// foreign sessions both come back as ErrForbidden.
func (s *ChatService) ownedSession(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatSession, error) {
	session, err := s.store.GetChatSession(ctx, chatID)
	if errors.Is(err, database.ErrSessionNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	if session.UserID != userID {
		log.Warn().
			Str("chat_id", chatID.String()).
			Str("user_id", userID.String()).
			Str("owner_id", session.UserID.String()).
			Msg("Cross-user chat access denied")
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *ChatService) loadSummaries(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ChatSummary, error) {
	sessions, err := s.store.ListChatSessions(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	summaries := make([]models.ChatSummary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, sessions[i].Summary())
	}
	return summaries, nil
}

func (s *ChatService) invalidateList(ctx context.Context, userID uuid.UUID) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Delete(ctx, cache.ChatListKey(userID)); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate chat list cache")
	}
}

func (s *ChatService) notifyStored(role string) {
	if s.OnMessageStored != nil {
		s.OnMessageStored(role)
	}
}

// deriveTitle builds a session title from the first message.
// The message is trimmed; fewer than 10 runes yields the placeholder,
// otherwise the first 40 runes become the title.
func deriveTitle(message string) string {
	trimmed := strings.TrimSpace(message)
	runes := []rune(trimmed)
	if len(runes) < titleMinRunes {
		return placeholderTitle
	}
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes])
	}
	return trimmed
}
