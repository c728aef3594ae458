package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

func newTestTokenService(expiry time.Duration) *TokenService {
	return NewTokenService(&config.AuthConfig{
		JWTSecret:   []byte("test-secret-key-minimum-32-bytes-long!"),
		TokenExpiry: expiry,
	})
}

func TestTokenService(t *testing.T) {
	t.Run("issues and verifies a token", func(t *testing.T) {
		svc := newTestTokenService(7 * 24 * time.Hour)
		userID := uuid.New()

		token, err := svc.Issue(userID)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		verified, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, userID, verified)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		svc := newTestTokenService(1 * time.Millisecond)
		token, err := svc.Issue(uuid.New())
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		svc := newTestTokenService(time.Hour)
		forger := NewTokenService(&config.AuthConfig{
			JWTSecret:   []byte("another-secret-key-also-32-bytes-long!!"),
			TokenExpiry: time.Hour,
		})

		token, err := forger.Issue(uuid.New())
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects garbage token string", func(t *testing.T) {
		svc := newTestTokenService(time.Hour)

		_, err := svc.Verify("not-a-jwt-at-all")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("rejects empty token string", func(t *testing.T) {
		svc := newTestTokenService(time.Hour)

		_, err := svc.Verify("")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("rejects unsigned token", func(t *testing.T) {
		svc := newTestTokenService(time.Hour)

		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID: uuid.New().String(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.Error(t, err)
	})

	t.Run("rejects token with a non-UUID user claim", func(t *testing.T) {
		svc := newTestTokenService(time.Hour)

		signed := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID: "not-a-uuid",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		token, err := signed.SignedString([]byte("test-secret-key-minimum-32-bytes-long!"))
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("reports configured expiry", func(t *testing.T) {
		svc := newTestTokenService(168 * time.Hour)
		assert.Equal(t, 168*time.Hour, svc.Expiry())
	})
}

func BenchmarkTokenVerify(b *testing.B) {
	svc := newTestTokenService(time.Hour)
	token, err := svc.Issue(uuid.New())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Verify(token); err != nil {
			b.Fatal(err)
		}
	}
}
