package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nick-ui911/Nova-AI/internal/database"
	"github.com/Nick-ui911/Nova-AI/internal/middleware"
	"github.com/Nick-ui911/Nova-AI/internal/models"
	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// UserStore defines the user persistence operations the auth handler needs.
// GetUserByEmail must return the stored password hash so credentials can be
// checked; the cache layer satisfies this by reading through to the database.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email string, name, passwordHash, pictureURL *string) (*models.User, error)
}

// TokenIssuer defines the token operations the auth handler needs.
// Implemented by *services.TokenService and mocked in tests.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
	Expiry() time.Duration
}

// AuthHandler handles account creation and login endpoints.
// Provides the full credential surface:
//   - Email/password signup and login (bcrypt)
//   - Google federated login via posted ID tokens
//   - Logout (cookie clearing; tokens are stateless and cannot be revoked)
//   - Authenticated profile access
//
// Every successful signup or login issues a fresh 7-day token and sets it
// as an httpOnly cookie; the token is also returned in the response body
// for non-browser clients.
type AuthHandler struct {
	users        UserStore               // User persistence (cache-backed)
	tokens       TokenIssuer             // Token issuance
	google       services.GoogleVerifier // Google ID token verification
	isProduction bool                    // Production mode flag (affects cookie settings)
}

// NewAuthHandler creates a new authentication handler.
//
// Example:
//
//	authHandler := handlers.NewAuthHandler(userCache, tokenSvc, googleSvc, cfg.Server.IsProduction())
//
//	r.Post("/api/signup", authHandler.Signup)
//	r.Post("/api/login", authHandler.Login)
func NewAuthHandler(users UserStore, tokens TokenIssuer, google services.GoogleVerifier, isProduction bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		google:       google,
		isProduction: isProduction,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

// authResponse is the body of every successful signup/login response.
// The token duplicates the cookie so clients that cannot read cookies
// (mobile apps, CLI tools) can store it themselves.
type authResponse struct {
	User  models.Identity `json:"user"`
	Token string          `json:"token"`
}

// profileResponse wraps the identity for the profile endpoint.
type profileResponse struct {
	User models.Identity `json:"user"`
}

// Signup registers a new account with an email and password.
//
// Request body: {"name": "...", "email": "...", "password": "..."}
//
// Responses:
//   - 201 {user, token} with the token cookie set
//   - 400 "All fields are required" on any missing field
//   - 409 "User already exists" on a duplicate email
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "All fields are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	hashStr := string(hash)

	user, err := h.users.CreateUser(r.Context(), email, &name, &hashStr, nil)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			middleware.IncrementAuthAttempts("signup", "duplicate")
			utils.RespondWithError(w, r, http.StatusConflict, "User already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to create user")
		middleware.IncrementAuthAttempts("signup", "error")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.issueSession(w, r, user, "signup", http.StatusCreated)
}

// Login authenticates an existing account with an email and password.
//
// Unknown emails, wrong passwords, and federated-only accounts (no
// password hash) all produce the same 401 so the response never reveals
// whether an email is registered.
//
// Responses:
//   - 200 {user, token} with the token cookie set
//   - 400 "Email and password are required" on missing fields
//   - 401 "Invalid email or password" on any credential failure
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.ToLower(email))
	if err != nil {
		if !errors.Is(err, database.ErrUserNotFound) {
			log.Error().Err(err).Msg("Failed to look up user for login")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			return
		}
		middleware.IncrementAuthAttempts("login", "failure")
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	// Google-only accounts have no hash and cannot use password login.
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		middleware.IncrementAuthAttempts("login", "failure")
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.issueSession(w, r, user, "login", http.StatusOK)
}

// GoogleLogin authenticates with a Google ID token obtained by the
// browser-side sign-in flow. The first Google login for an email creates
// the account with no password hash.
//
// Request body: {"token": "<google id token>"}
//
// Responses:
//   - 200 {user, token} with the token cookie set
//   - 400 "Invalid token" when the ID token fails verification
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid token")
		return
	}

	identity, err := h.google.VerifyIDToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrGoogleTokenInvalid) {
			middleware.IncrementAuthAttempts("google", "failure")
			utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid token")
			return
		}
		log.Error().Err(err).Msg("Google token verification failed")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.findOrCreateGoogleUser(r.Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("email", identity.Email).Msg("Failed to resolve google user")
		middleware.IncrementAuthAttempts("google", "error")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.issueSession(w, r, user, "google", http.StatusOK)
}

// Logout clears the token cookie. The token itself stays valid until it
// expires since there is no server-side revocation; logout is a client
// state change only.
//
// Responses:
//   - 200 {"message": "Logout successful"}
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearTokenCookie(w)
	utils.RespondWithMessage(w, r, http.StatusOK, "Logout successful")
}

// Profile returns the authenticated user's public identity.
// Must be registered behind RequireUser.
//
// Responses:
//   - 200 {"user": {"id", "name", "email"}}
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, profileResponse{User: *identity})
}

// findOrCreateGoogleUser joins a verified Google identity to an account
// by email, creating the account on first login. A concurrent first login
// for the same email loses the insert race and falls back to the lookup.
func (h *AuthHandler) findOrCreateGoogleUser(ctx context.Context, identity *services.GoogleIdentity) (*models.User, error) {
	user, err := h.users.GetUserByEmail(ctx, strings.ToLower(identity.Email))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	var name, picture *string
	if identity.Name != "" {
		name = &identity.Name
	}
	if identity.Picture != "" {
		picture = &identity.Picture
	}

	user, err = h.users.CreateUser(ctx, identity.Email, name, nil, picture)
	if errors.Is(err, database.ErrDuplicateEmail) {
		return h.users.GetUserByEmail(ctx, strings.ToLower(identity.Email))
	}
	return user, err
}

// issueSession finalizes a successful signup or login: issue a token, set
// the cookie, log the device, and write the {user, token} response.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, method string, status int) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to issue token")
		middleware.IncrementAuthAttempts(method, "error")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SetTokenCookie(w, token, int(h.tokens.Expiry().Seconds()), h.isProduction)
	middleware.IncrementAuthAttempts(method, "success")

	log.Info().
		Str("user_id", user.ID.String()).
		Str("method", method).
		Str("device", services.ExtractDeviceInfo(r.UserAgent())).
		Str("ip", utils.ExtractClientIP(r)).
		Msg("User authenticated")

	utils.RespondWithJSON(w, r, status, authResponse{
		User:  user.PublicUser(),
		Token: token,
	})
}
