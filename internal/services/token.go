package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

// Token verification failures. Verify collapses the jwt library's error
// surface into these three so middleware can pick a response without
// string matching.
var (
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates the string is not a parseable JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid indicates a bad signature, wrong algorithm, or any
	// other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims represents the JWT claims embedded in auth tokens.
// The user ID is the only application claim; everything else a request
// needs is loaded from the database at verification time.
type Claims struct {
	UserID               string `json:"userId"` // UUID of the authenticated user
	jwt.RegisteredClaims        // Standard JWT claims (exp, iat, nbf)
}

// TokenService issues and verifies stateless auth tokens.
//
// Tokens use HS256 signing and carry a single userId claim. There is no
// refresh flow and no server-side revocation: possession of a token with
// a valid signature authenticates the bearer until the expiry passes.
// Logout only clears the cookie on the client.
type TokenService struct {
	secret []byte        // Secret key for JWT signing (HS256)
	expiry time.Duration // Token lifetime (default: 7 days)
}

// NewTokenService creates a new token service with the provided configuration.
// The service will use the configured secret for token signing and the
// specified expiry duration for issued tokens.
//
// Example:
//
//	tokenSvc := services.NewTokenService(&cfg.Auth)
func NewTokenService(cfg *config.AuthConfig) *TokenService {
	return &TokenService{
		secret: cfg.JWTSecret,
		expiry: cfg.TokenExpiry,
	}
}

// Expiry returns the configured token lifetime. Handlers use it to set
// the cookie MaxAge to match the token's own expiry.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Issue creates a signed auth token for a user.
// The token is signed using HS256 (HMAC-SHA256) with the configured
// secret and expires after the configured lifetime.
//
// Example:
//
//	token, err := tokenSvc.Issue(user.ID)
//	if err != nil {
//	    return fmt.Errorf("token generation failed: %w", err)
//	}
//	utils.SetTokenCookie(w, token, int(tokenSvc.Expiry().Seconds()), isProduction)
func (s *TokenService) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	log.Debug().
		Str("user_id", userID.String()).
		Msg("Auth token issued")

	return tokenString, nil
}

// Verify validates a token string and returns the user ID it was issued
// for. Verification checks the HMAC signature, the expiry, and the claim
// shape; it never touches the database, which makes it cheap enough for
// the pre-routing guard.
//
// Failure modes:
//   - ErrTokenExpired: signature fine, expiry passed
//   - ErrTokenMalformed: not a JWT at all
//   - ErrTokenInvalid: bad signature, wrong algorithm, or bad user ID claim
//
// Example:
//
//	userID, err := tokenSvc.Verify(cookie.Value)
//	switch {
//	case errors.Is(err, services.ErrTokenExpired):
//	    // 401 Session expired
//	case err != nil:
//	    // 401 Invalid or expired token
//	}
func (s *TokenService) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return uuid.Nil, ErrTokenMalformed
		default:
			return uuid.Nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user ID claim", ErrTokenInvalid)
	}

	return userID, nil
}
