// Package cache provides standardized cache key generation functions.
// Using consistent key naming helps avoid collisions and makes cache
// management easier. All keys follow the pattern: "prefix:identifier".
package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Key prefixes for different cache types.
// These constants ensure consistent key naming across the application.
const (
	UserPrefix = "user:"
	ChatPrefix = "chat:"
)

// UserKey generates a cache key for user data by ID.
// Use this for caching full user objects on the auth hot path.
//
// Example: "user:123e4567-e89b-12d3-a456-426614174000"
func UserKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s", UserPrefix, userID.String())
}

// ChatListKey generates a cache key for a user's chat session list.
//
// Example: "chat:list:123e4567-e89b-12d3-a456-426614174000"
func ChatListKey(userID uuid.UUID) string {
	return fmt.Sprintf("%slist:%s", ChatPrefix, userID.String())
}

// UserPattern returns a glob pattern matching all user cache keys for a specific user.
// Use with DeletePattern to invalidate all user-related cache.
//
// Example: "user:123e4567-e89b-12d3-a456-426614174000*"
func UserPattern(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s*", UserPrefix, userID.String())
}

// UserAllPattern returns a glob pattern matching all user-related cache keys.
// Use this to clear all user caches (use with caution in production).
//
// Example: "user:*"
func UserAllPattern() string {
	return fmt.Sprintf("%s*", UserPrefix)
}
