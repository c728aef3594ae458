package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/models"
)

// CreateChatSession creates a new chat session for a user.
//
// Example:
//
//	session, err := db.CreateChatSession(ctx, userID, "How do goroutines work?")
func (p *PostgresDB) CreateChatSession(ctx context.Context, userID uuid.UUID, title string) (*models.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, created_at
	`

	var session models.ChatSession
	err := p.db.QueryRowContext(ctx, query, userID, title).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	log.Info().
		Str("chat_id", session.ID.String()).
		Str("user_id", userID.String()).
		Msg("Chat session created")

	return &session, nil
}

// GetChatSession retrieves a chat session by ID.
// Returns ErrSessionNotFound if no such session exists. Ownership is
// checked by the caller against session.UserID, never here, so a missing
// session and a foreign session produce distinct errors.
func (p *PostgresDB) GetChatSession(ctx context.Context, chatID uuid.UUID) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at
		FROM chat_sessions
		WHERE id = $1
	`

	var session models.ChatSession
	err := p.db.QueryRowContext(ctx, query, chatID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	return &session, nil
}

// ListChatSessions returns a user's chat sessions ordered newest first.
// offset/limit implement offset pagination; pass limit < 0 to fetch the
// full list.
func (p *PostgresDB) ListChatSessions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{userID}
	if limit >= 0 {
		query += ` OFFSET $2 LIMIT $3`
		args = append(args, offset, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.ChatSession, 0)
	for rows.Next() {
		var session models.ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}

	return sessions, nil
}

// CountChatSessions returns the total number of chat sessions a user owns.
// Used to build pagination metadata for the session list.
func (p *PostgresDB) CountChatSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat sessions: %w", err)
	}
	return count, nil
}

// AppendMessage appends a message to a chat session and returns the stored
// row. The seq column is assigned by the database and breaks ordering ties
// between messages created within the same timestamp tick.
//
// Example:
//
//	msg, err := db.AppendMessage(ctx, chatID, models.RoleUser, "Hello")
func (p *PostgresDB) AppendMessage(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error) {
	query := `
		INSERT INTO messages (chat_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, chat_id, role, content, seq, created_at
	`

	var msg models.Message
	err := p.db.QueryRowContext(ctx, query, chatID, role, content).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.Seq,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return &msg, nil
}

// ListMessages returns all messages of a chat session oldest first.
// Ordering is by created_at with seq as tiebreaker so the user message
// of a turn always precedes the AI reply written moments later.
func (p *PostgresDB) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, chat_id, role, content, seq, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := p.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.Seq, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// DeleteChatSession deletes a chat session and all its messages in one
// transaction. Messages go first so a failure between the two statements
// can never leave orphaned messages behind.
func (p *PostgresDB) DeleteChatSession(ctx context.Context, chatID uuid.UUID) error {
	err := p.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, chatID)
		if err != nil {
			return fmt.Errorf("failed to delete chat session: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrSessionNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("chat_id", chatID.String()).
		Msg("Chat session deleted")

	return nil
}
