// Package middleware provides HTTP middleware components for the API.
// Middleware functions wrap HTTP handlers to provide cross-cutting concerns
// like authentication, logging, and metrics.
//
// Middleware in this package:
//   - Token authentication with user resolution (RequireUser)
//   - Cheap pre-routing page guard (PageGuard)
//   - Structured request/response logging with correlation IDs
//   - Prometheus metrics collection
//
// All middleware is designed to be composable with Chi router.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/database"
	"github.com/Nick-ui911/Nova-AI/internal/models"
	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// contextKey is a custom type for context keys to avoid collisions.
// Using a custom type prevents conflicts with other packages that might
// use string keys in the context.
type contextKey string

// identityKey is the context key for the authenticated user's identity.
// Set by RequireUser after successful token verification and user lookup.
const identityKey contextKey = "identity"

// UserResolver loads the user a verified token points at.
// Satisfied by both *database.PostgresDB and *cache.UserCache, so the
// gate can run with or without the Redis cache in front.
type UserResolver interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// RequireUser creates the authentication middleware for protected API
// routes. It is the single authority on what an authenticated request
// means: a valid token cookie whose user still exists.
//
// The middleware reads the "token" cookie, verifies it, resolves the
// user, and injects the public identity into the request context.
//
// Failure modes:
//   - missing cookie: 401 "Authentication required"
//   - expired token: 401 "Session expired"
//   - malformed or forged token: 401 "Invalid or expired token"
//   - valid token, user row gone: 404 "User not found"
//
// A user lookup aborted by context cancellation is not an auth verdict;
// the request is dropped without a response since the client is gone.
//
// Usage:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.RequireUser(tokenSvc, userCache))
//	    r.Get("/profile", authHandler.Profile)
//	})
//
// Accessing the identity in handlers:
//
//	identity, ok := middleware.GetIdentity(r.Context())
//	if !ok {
//	    utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
//	    return
//	}
func RequireUser(tokens *services.TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(utils.TokenCookieName)
			if err != nil || cookie.Value == "" {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := tokens.Verify(cookie.Value)
			if err != nil {
				log.Warn().Err(err).Msg("Token verification failed")
				if errors.Is(err, services.ErrTokenExpired) {
					utils.RespondWithError(w, r, http.StatusUnauthorized, "Session expired")
					return
				}
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, database.ErrUserNotFound) {
					// Token outlived the account it was issued for.
					utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
					return
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					// Lookup aborted, no auth verdict either way.
					log.Debug().Str("user_id", userID.String()).Msg("User lookup abandoned, request cancelled")
					return
				}
				log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to resolve user")
				utils.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}

			identity := user.PublicUser()
			ctx := context.WithValue(r.Context(), identityKey, &identity)

			log.Debug().
				Str("user_id", identity.ID.String()).
				Str("email", identity.Email).
				Msg("User authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the authenticated user's identity from the
// request context. Returns the identity and a boolean indicating
// whether it was found.
//
// This function should be called in handlers behind the RequireUser
// middleware to access the authenticated user.
//
// Example:
//
//	identity, ok := middleware.GetIdentity(r.Context())
//	if !ok {
//	    utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
//	    return
//	}
//	sessions, err := chatSvc.ListSessions(r.Context(), identity.ID, 0, -1)
func GetIdentity(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*models.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity.
// Used by handler tests to simulate an authenticated request without
// running the full middleware chain.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
