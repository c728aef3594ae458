package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/models"
)

// UserDatabase defines the interface for user database operations
type UserDatabase interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email string, name, passwordHash, pictureURL *string) (*models.User, error)
}

// UserCache is a cache-aside layer in front of the user store. The auth
// middleware resolves the token's user through it on every protected
// request, so a cache hit saves one Postgres round trip per request.
//
// Cached copies are serialized through the User JSON tags and therefore
// never carry the password hash. Credential checks must read the store
// directly; the cache only serves identity resolution.
//
// Lookup errors from the underlying store pass through unchanged
// (including database.ErrUserNotFound), so callers match sentinels with
// errors.Is regardless of whether the cache was consulted.
//
// The cache trades freshness for the saved round trip: a user row
// removed from Postgres keeps resolving, and their token keeps
// authenticating, until the cached entry's TTL lapses. Any code path
// that deletes or disables an account must call InvalidateUser so the
// window closes immediately.
type UserCache struct {
	cache *Cache
	db    UserDatabase
	ttl   time.Duration
}

// NewUserCache creates a new user cache
func NewUserCache(cache *Cache, db UserDatabase, ttl time.Duration) *UserCache {
	return &UserCache{
		cache: cache,
		db:    db,
		ttl:   ttl,
	}
}

// GetUserByID retrieves a user by ID with caching
func (uc *UserCache) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	key := UserKey(userID)

	err := uc.cache.GetOrSet(ctx, key, uc.ttl, &user, func() (interface{}, error) {
		return uc.db.GetUserByID(ctx, userID)
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByEmail loads a user from the store and warms the by-ID cache.
// The lookup itself is never served from cache: callers need the password
// hash for credential checks, and cached copies do not carry it. The
// returned value is the store's copy, hash included.
func (uc *UserCache) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := uc.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := uc.cacheUser(ctx, user); err != nil {
		log.Warn().Err(err).Msg("Failed to cache user after email lookup")
	}

	return user, nil
}

// CreateUser creates a new user and caches it
func (uc *UserCache) CreateUser(ctx context.Context, email string, name, passwordHash, pictureURL *string) (*models.User, error) {
	user, err := uc.db.CreateUser(ctx, email, name, passwordHash, pictureURL)
	if err != nil {
		return nil, err
	}

	// Cache the new user
	if err := uc.cacheUser(ctx, user); err != nil {
		log.Warn().Err(err).Msg("Failed to cache newly created user")
	}

	return user, nil
}

// InvalidateUser removes all cached data for a user
func (uc *UserCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	// We can only invalidate the user ID key directly
	// Email keys expire naturally via TTL
	key := UserKey(userID)
	return uc.cache.Delete(ctx, key)
}

// InvalidateAllUsers removes all cached user data (use sparingly)
func (uc *UserCache) InvalidateAllUsers(ctx context.Context) error {
	return uc.cache.DeletePattern(ctx, UserAllPattern())
}

// cacheUser caches a user by ID
func (uc *UserCache) cacheUser(ctx context.Context, user *models.User) error {
	return uc.cache.Set(ctx, UserKey(user.ID), user, uc.ttl)
}
