// Package models defines the core domain models for the application.
// These models represent the data structures used throughout the system
// for users, chat sessions, and messages.
//
// All models include appropriate JSON and database struct tags for
// serialization and query mapping. Sensitive fields are marked with `json:"-"`
// to prevent accidental exposure in API responses.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. Every stored message is authored by exactly one of these.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// User represents a user account. Accounts are created either with an
// email/password pair or through Google federated login, in which case
// PasswordHash is nil and password login is impossible for the account.
//
// The PasswordHash field is intentionally excluded from JSON serialization
// (via `json:"-"`) so it can never leak through an API response.
//
// JSON example:
//
//	{
//	  "id": "550e8400-e29b-41d4-a716-446655440000",
//	  "email": "user@example.com",
//	  "name": "John Doe",
//	  "picture_url": "https://lh3.googleusercontent.com/...",
//	  "created_at": "2024-01-15T10:30:00Z"
//	}
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`                             // Unique user identifier
	Email        string    `json:"email" db:"email"`                       // Lowercased, unique email address
	Name         *string   `json:"name,omitempty" db:"name"`               // Display name (nullable)
	PasswordHash *string   `json:"-" db:"password_hash"`                   // bcrypt hash; nil for Google-only accounts
	PictureURL   *string   `json:"picture_url,omitempty" db:"picture_url"` // Profile picture URL (nullable)
	CreatedAt    time.Time `json:"created_at" db:"created_at"`             // Account creation timestamp
}

// Identity is the public projection of a User returned by the profile
// endpoint and attached to the request context after authentication.
// It carries only the fields the frontend needs to render the account.
//
// JSON example:
//
//	{
//	  "id": "550e8400-e29b-41d4-a716-446655440000",
//	  "name": "John Doe",
//	  "email": "user@example.com"
//	}
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Name  *string   `json:"name"`
	Email string    `json:"email"`
}

// PublicUser returns the safe projection of a user for API responses.
func (u *User) PublicUser() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// ChatSession represents one conversation thread owned by a single user.
// The title is derived from the first message of the conversation and is
// only used for display in the session list.
type ChatSession struct {
	ID        uuid.UUID `json:"id" db:"id"`                 // Unique session identifier
	UserID    uuid.UUID `json:"user_id" db:"user_id"`       // Owner; every access is checked against this
	Title     string    `json:"title" db:"title"`           // Display title derived from the first message
	CreatedAt time.Time `json:"created_at" db:"created_at"` // Session creation timestamp
}

// ChatSummary is the session-list projection of a ChatSession. The owner
// is implied by the authenticated request and never echoed back.
//
// JSON example:
//
//	{
//	  "id": "3f8e1c2a-...",
//	  "title": "How do goroutines work?",
//	  "createdAt": "2024-01-20T14:45:00Z"
//	}
type ChatSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the session-list projection of the session.
func (s *ChatSession) Summary() ChatSummary {
	return ChatSummary{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
}

// Message represents a single message inside a chat session, authored by
// either the user or the AI. Seq is a database-assigned insertion counter
// used as an ordering tiebreaker when two messages share a timestamp, which
// happens routinely since the user message and the AI reply of one turn are
// written back to back.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ChatID    uuid.UUID `json:"chat_id" db:"chat_id"`
	Role      string    `json:"role" db:"role"` // RoleUser or RoleAI
	Content   string    `json:"content" db:"content"`
	Seq       int64     `json:"-" db:"seq"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MessageView is the chat-window projection of a Message.
//
// JSON example:
//
//	{
//	  "id": "9b2d4e6f-...",
//	  "role": "ai",
//	  "content": "Goroutines are lightweight threads...",
//	  "createdAt": "2024-01-20T14:45:02Z"
//	}
type MessageView struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// View returns the chat-window projection of the message.
func (m *Message) View() MessageView {
	return MessageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
