// Package testutil provides common testing utilities, fixtures, and helpers
// for use across all test files in the project.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nick-ui911/Nova-AI/internal/models"
)

// TestPassword is the password TestUser's hash matches.
const TestPassword = "correct-password"

// HashPassword bcrypt-hashes a password at the minimum cost. Tests use
// the minimum cost so fixtures stay cheap.
func HashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

// TestUser creates a password-based test user with default values.
func TestUser() *models.User {
	hash := HashPassword(TestPassword)
	return &models.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		Name:         StringPtr("Test User"),
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
	}
}

// TestGoogleUser creates a federated test user with no password hash.
func TestGoogleUser() *models.User {
	return &models.User{
		ID:         uuid.New(),
		Email:      "google@example.com",
		Name:       StringPtr("Google User"),
		PictureURL: StringPtr("https://lh3.googleusercontent.com/picture.jpg"),
		CreatedAt:  time.Now(),
	}
}

// TestUserWithEmail creates a test user with a specific email.
func TestUserWithEmail(email string) *models.User {
	user := TestUser()
	user.Email = email
	return user
}

// TestUserWithID creates a test user with a specific ID.
func TestUserWithID(id uuid.UUID) *models.User {
	user := TestUser()
	user.ID = id
	return user
}

// TestChatSession creates a test chat session owned by the given user.
func TestChatSession(userID uuid.UUID) *models.ChatSession {
	return &models.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "How do goroutines work?",
		CreatedAt: time.Now(),
	}
}

// TestMessage creates a test message inside the given session.
func TestMessage(chatID uuid.UUID, role, content string, seq int64) *models.Message {
	return &models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		Seq:       seq,
		CreatedAt: time.Now(),
	}
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// UserAgents provides common user agent strings for testing
var UserAgents = struct {
	Chrome       string
	Safari       string
	MobileSafari string
	Unknown      string
}{
	Chrome:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Safari:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	MobileSafari: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	Unknown:      "",
}
