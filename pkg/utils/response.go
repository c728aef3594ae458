// Package utils provides common utility functions for HTTP response handling,
// request ID management, and cookie operations. It includes standardized response
// formats with automatic request ID injection for distributed tracing.
package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// requestIDKey is the context key for request ID
const requestIDKey contextKey = "request_id"

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if the context is nil or no request ID is present.
//
// Example:
//
//	requestID := utils.GetRequestID(r.Context())
//	if requestID != "" {
//	    log.Info().Str("request_id", requestID).Msg("Processing request")
//	}
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context for distributed tracing.
// This is typically called by middleware to inject a unique identifier for each request.
//
// Example:
//
//	ctx := utils.WithRequestID(r.Context(), uuid.New().String())
//	r = r.WithContext(ctx)
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ErrorResponse represents a standard error response structure.
// It includes the HTTP status text, a custom message, and a request ID for tracing.
type ErrorResponse struct {
	Error     string `json:"error"`                // HTTP status text (e.g., "Bad Request")
	Message   string `json:"message,omitempty"`    // Detailed error message
	RequestID string `json:"request_id,omitempty"` // Request ID for distributed tracing
}

// RespondWithError sends a JSON error response with automatic request ID extraction.
// The request ID is automatically extracted from the request context.
//
// Example:
//
//	if user == nil {
//	    utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
//	    return
//	}
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	requestID := GetRequestID(r.Context())
	RespondWithErrorAndRequestID(w, statusCode, message, requestID)
}

// RespondWithErrorAndRequestID sends a JSON error response with an explicit request ID.
// Use RespondWithError instead for automatic request ID extraction from context.
func RespondWithErrorAndRequestID(w http.ResponseWriter, statusCode int, message string, requestID string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("Failed to encode error response")
	}
}

// RespondWithJSON sends a JSON response with the given status code and data.
// The request ID is automatically extracted from the request context.
//
// Example:
//
//	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{
//	    "status": "success",
//	    "user_id": userID,
//	})
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	requestID := GetRequestID(r.Context())
	RespondWithJSONAndRequestID(w, statusCode, data, requestID)
}

// RespondWithJSONAndRequestID sends a JSON response with an explicit request ID.
// Use RespondWithJSON instead for automatic request ID extraction from context.
func RespondWithJSONAndRequestID(w http.ResponseWriter, statusCode int, data interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("Failed to encode JSON response")
	}
}

// RespondWithMessage sends a simple message response with the given status code.
// Useful for endpoints that only need to return a status message.
//
// Example:
//
//	utils.RespondWithMessage(w, r, http.StatusOK, "Session revoked successfully")
func RespondWithMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	requestID := GetRequestID(r.Context())
	RespondWithMessageAndRequestID(w, statusCode, message, requestID)
}

// RespondWithMessageAndRequestID sends a simple message response with an explicit request ID.
// Use RespondWithMessage instead for automatic request ID extraction from context.
func RespondWithMessageAndRequestID(w http.ResponseWriter, statusCode int, message string, requestID string) {
	response := map[string]string{
		"message": message,
	}
	if requestID != "" {
		response["request_id"] = requestID
	}

	RespondWithJSONAndRequestID(w, statusCode, response, requestID)
}

// TokenCookieName is the name of the cookie carrying the auth token.
// The frontend middleware and every API handler read the same cookie.
const TokenCookieName = "token"

// SetTokenCookie sets the auth token cookie with appropriate security settings.
// In production, the cookie is marked as Secure (HTTPS only). The cookie is
// always HttpOnly and uses SameSite=Lax for CSRF protection.
//
// maxAge is specified in seconds and should match the token lifetime so the
// browser drops the cookie when the token inside it expires.
//
// Example:
//
//	utils.SetTokenCookie(w, token, int((7*24*time.Hour).Seconds()), true)
func SetTokenCookie(w http.ResponseWriter, token string, maxAge int, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// ClearTokenCookie clears the auth token cookie by overwriting it with an
// empty value that expired at the Unix epoch. This instructs the browser to
// immediately delete the cookie.
//
// Example:
//
//	utils.ClearTokenCookie(w)
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
