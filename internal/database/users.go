package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/models"
)

// pq error code for unique_violation
const pqUniqueViolation = "23505"

// CreateUser inserts a new user account. The email is normalized to
// lowercase before insert; the unique constraint on email is the source
// of truth for duplicates, so concurrent signups with the same email
// cannot both succeed.
//
// passwordHash and pictureURL may be nil. Federated accounts are created
// with a nil passwordHash and can never authenticate with a password.
//
// Returns ErrDuplicateEmail if the email is already registered.
//
// Example:
//
//	user, err := db.CreateUser(ctx, "User@Example.com", &name, &hash, nil)
//	if errors.Is(err, database.ErrDuplicateEmail) {
//	    utils.RespondWithError(w, r, http.StatusConflict, "Email already registered")
//	    return
//	}
func (p *PostgresDB) CreateUser(ctx context.Context, email string, name, passwordHash, pictureURL *string) (*models.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, picture_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, password_hash, picture_url, created_at
	`

	var user models.User
	err := p.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email)), name, passwordHash, pictureURL).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.PictureURL,
		&user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("User created successfully")

	return &user, nil
}

// GetUserByID retrieves a user by their unique UUID.
// Returns ErrUserNotFound if no such user exists, which the auth
// middleware maps to a 404 for tokens pointing at deleted accounts.
//
// Example:
//
//	user, err := db.GetUserByID(ctx, userID)
//	if errors.Is(err, database.ErrUserNotFound) {
//	    utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
//	    return
//	}
func (p *PostgresDB) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, picture_url, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.PictureURL,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by their email address. The lookup is
// case-insensitive because emails are stored lowercase.
// Returns ErrUserNotFound if no such user exists.
//
// Example:
//
//	user, err := db.GetUserByEmail(ctx, "user@example.com")
//	if errors.Is(err, database.ErrUserNotFound) {
//	    // unknown email, treat as invalid credentials
//	}
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, picture_url, created_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	err := p.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.PictureURL,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
