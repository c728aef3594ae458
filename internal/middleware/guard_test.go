package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick-ui911/Nova-AI/internal/testutil"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func TestPageGuard(t *testing.T) {
	tokenSvc := newTestTokenService(time.Hour)
	guard := PageGuard(tokenSvc)(okHandler())

	t.Run("public paths pass without a token", func(t *testing.T) {
		for _, path := range []string{"/", "/api/login", "/api/signup", "/api/google-login", "/health", "/metrics", "/static/app.js"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			guard.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "path %s should pass", path)
		}
	})

	t.Run("unlisted paths pass through to routing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/some/other/page", nil)
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("protected path without token redirects to landing page", func(t *testing.T) {
		for _, path := range []string{"/chat", "/chat/123", "/api/chat", "/api/profile"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			guard.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, "path %s should redirect", path)
			assert.Equal(t, "/", rec.Header().Get("Location"))
		}
	})

	t.Run("protected path with bad token redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		testutil.SetCookie(req, utils.TokenCookieName, "garbage-token")
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	})

	t.Run("protected path with expired token redirects", func(t *testing.T) {
		shortSvc := newTestTokenService(1 * time.Millisecond)
		shortGuard := PageGuard(shortSvc)(okHandler())

		token, err := shortSvc.Issue(uuid.New())
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)

		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		testutil.SetCookie(req, utils.TokenCookieName, token)
		rec := httptest.NewRecorder()

		shortGuard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	})

	t.Run("protected path with valid token passes", func(t *testing.T) {
		token, err := tokenSvc.Issue(uuid.New())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		testutil.SetCookie(req, utils.TokenCookieName, token)
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("prefix match requires a path separator", func(t *testing.T) {
		// /chattery is not under /chat and must not be guarded.
		req := httptest.NewRequest(http.MethodGet, "/chattery", nil)
		rec := httptest.NewRecorder()

		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
