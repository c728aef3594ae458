package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nick-ui911/Nova-AI/internal/database"
	"github.com/Nick-ui911/Nova-AI/internal/middleware"
	"github.com/Nick-ui911/Nova-AI/internal/models"
	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/internal/testutil"
	"github.com/Nick-ui911/Nova-AI/pkg/config"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// mockUserStore is a testify mock of the UserStore interface.
type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) CreateUser(ctx context.Context, email string, name, passwordHash, pictureURL *string) (*models.User, error) {
	args := m.Called(ctx, email, name, passwordHash, pictureURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// mockGoogleVerifier is a testify mock of the GoogleVerifier interface.
type mockGoogleVerifier struct {
	mock.Mock
}

func (m *mockGoogleVerifier) VerifyIDToken(ctx context.Context, token string) (*services.GoogleIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GoogleIdentity), args.Error(1)
}

func newTestTokenService() *services.TokenService {
	return services.NewTokenService(&config.AuthConfig{
		JWTSecret:   []byte("test-secret-key-minimum-32-bytes-long!"),
		TokenExpiry: 7 * 24 * time.Hour,
	})
}

func newAuthTestHandler(users *mockUserStore, google *mockGoogleVerifier) *AuthHandler {
	return NewAuthHandler(users, newTestTokenService(), google, false)
}

func TestSignup(t *testing.T) {
	t.Run("creates an account and sets the token cookie", func(t *testing.T) {
		users := new(mockUserStore)
		user := testutil.TestUserWithEmail("new@example.com")

		users.On("CreateUser", mock.Anything, "new@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(user, nil)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/signup", map[string]string{
			"name":     "New User",
			"email":    "new@example.com",
			"password": "s3cret-pass",
		})
		rec := httptest.NewRecorder()

		handler.Signup(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusCreated)

		var resp struct {
			User  models.Identity `json:"user"`
			Token string          `json:"token"`
		}
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, "new@example.com", resp.User.Email)
		assert.NotEmpty(t, resp.Token)

		cookie := testutil.AssertCookie(t, rec, utils.TokenCookieName)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.Equal(t, 7*24*3600, cookie.MaxAge)

		// The hash must never appear in a response body.
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("hashes the password before storing", func(t *testing.T) {
		users := new(mockUserStore)
		user := testutil.TestUser()

		var storedHash *string
		users.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				storedHash = args.Get(3).(*string)
			}).
			Return(user, nil)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/signup", map[string]string{
			"name":     "Hash Check",
			"email":    "hash@example.com",
			"password": "plain-password",
		})
		handler.Signup(httptest.NewRecorder(), req)

		require.NotNil(t, storedHash)
		assert.NotEqual(t, "plain-password", *storedHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*storedHash), []byte("plain-password")))
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		bodies := []map[string]string{
			{"email": "a@b.c", "password": "x"},
			{"name": "A", "password": "x"},
			{"name": "A", "email": "a@b.c"},
			{"name": "   ", "email": "a@b.c", "password": "x"},
			{"name": "A", "email": "a@b.c", "password": "   "},
		}

		for _, body := range bodies {
			users := new(mockUserStore)
			handler := newAuthTestHandler(users, nil)

			req := testutil.MakeRequest(t, http.MethodPost, "/api/signup", body)
			rec := httptest.NewRecorder()

			handler.Signup(rec, req)

			testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
			assert.Contains(t, rec.Body.String(), "All fields are required")
			users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("duplicate email yields 409", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, database.ErrDuplicateEmail)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/signup", map[string]string{
			"name":     "Dup",
			"email":    "taken@example.com",
			"password": "whatever",
		})
		rec := httptest.NewRecorder()

		handler.Signup(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusConflict)
		assert.Contains(t, rec.Body.String(), "User already exists")
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials yield a session", func(t *testing.T) {
		users := new(mockUserStore)
		user := testutil.TestUser() // hash of testutil.TestPassword

		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/login", map[string]string{
			"email":    user.Email,
			"password": testutil.TestPassword,
		})
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)
		testutil.AssertCookie(t, rec, utils.TokenCookieName)
	})

	t.Run("unknown email yields the generic 401", func(t *testing.T) {
		users := new(mockUserStore)
		users.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, database.ErrUserNotFound)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "whatever",
		})
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("wrong password yields the same 401", func(t *testing.T) {
		users := new(mockUserStore)
		user := testutil.TestUser()
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/login", map[string]string{
			"email":    user.Email,
			"password": "wrong-password",
		})
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("federated account without a hash yields the same 401", func(t *testing.T) {
		users := new(mockUserStore)
		user := testutil.TestGoogleUser() // PasswordHash is nil
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil)

		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/login", map[string]string{
			"email":    user.Email,
			"password": "any-password",
		})
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("missing fields yield 400", func(t *testing.T) {
		users := new(mockUserStore)
		handler := newAuthTestHandler(users, nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/login", map[string]string{"email": "a@b.c"})
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
		users.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestGoogleLogin(t *testing.T) {
	t.Run("first login creates a federated account", func(t *testing.T) {
		users := new(mockUserStore)
		google := new(mockGoogleVerifier)
		user := testutil.TestGoogleUser()

		google.On("VerifyIDToken", mock.Anything, "good-id-token").Return(&services.GoogleIdentity{
			Email:   user.Email,
			Name:    "Google User",
			Picture: "https://lh3.googleusercontent.com/p.jpg",
		}, nil)
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(nil, database.ErrUserNotFound)
		users.On("CreateUser", mock.Anything, user.Email, mock.Anything, (*string)(nil), mock.Anything).
			Return(user, nil)

		handler := newAuthTestHandler(users, google)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/google-login", map[string]string{"token": "good-id-token"})
		rec := httptest.NewRecorder()

		handler.GoogleLogin(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)
		testutil.AssertCookie(t, rec, utils.TokenCookieName)
		users.AssertExpectations(t)
	})

	t.Run("repeat login reuses the existing account", func(t *testing.T) {
		users := new(mockUserStore)
		google := new(mockGoogleVerifier)
		user := testutil.TestGoogleUser()

		google.On("VerifyIDToken", mock.Anything, "good-id-token").Return(&services.GoogleIdentity{Email: user.Email}, nil)
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil)

		handler := newAuthTestHandler(users, google)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/google-login", map[string]string{"token": "good-id-token"})
		rec := httptest.NewRecorder()

		handler.GoogleLogin(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)
		users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unverifiable token yields 400", func(t *testing.T) {
		users := new(mockUserStore)
		google := new(mockGoogleVerifier)

		google.On("VerifyIDToken", mock.Anything, "bad-token").Return(nil, services.ErrGoogleTokenInvalid)

		handler := newAuthTestHandler(users, google)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/google-login", map[string]string{"token": "bad-token"})
		rec := httptest.NewRecorder()

		handler.GoogleLogin(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("empty token yields 400 without calling the verifier", func(t *testing.T) {
		users := new(mockUserStore)
		google := new(mockGoogleVerifier)
		handler := newAuthTestHandler(users, google)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/google-login", map[string]string{})
		rec := httptest.NewRecorder()

		handler.GoogleLogin(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
		google.AssertNotCalled(t, "VerifyIDToken", mock.Anything, mock.Anything)
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears the token cookie", func(t *testing.T) {
		handler := newAuthTestHandler(new(mockUserStore), nil)

		req := testutil.MakeRequest(t, http.MethodPost, "/api/logout", nil)
		rec := httptest.NewRecorder()

		handler.Logout(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)
		assert.Contains(t, rec.Body.String(), "Logout successful")

		cookie := testutil.AssertCookie(t, rec, utils.TokenCookieName, "")
		require.NotNil(t, cookie)
		assert.Negative(t, cookie.MaxAge)
	})
}

func TestProfile(t *testing.T) {
	t.Run("returns the authenticated identity", func(t *testing.T) {
		handler := newAuthTestHandler(new(mockUserStore), nil)
		identity := &models.Identity{ID: uuid.New(), Email: "me@example.com"}

		req := testutil.MakeRequest(t, http.MethodGet, "/api/profile", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
		rec := httptest.NewRecorder()

		handler.Profile(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)

		var resp struct {
			User models.Identity `json:"user"`
		}
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Equal(t, identity.ID, resp.User.ID)
		assert.Equal(t, "me@example.com", resp.User.Email)
	})

	t.Run("rejects a request without identity", func(t *testing.T) {
		handler := newAuthTestHandler(new(mockUserStore), nil)

		req := testutil.MakeRequest(t, http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()

		handler.Profile(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
	})
}
