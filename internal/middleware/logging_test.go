package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// frontendOrigin matches the default ALLOWED_ORIGINS / FRONTEND_URL
// configuration the dev frontend runs on.
const frontendOrigin = "http://localhost:3000"

func TestLogger(t *testing.T) {
	t.Run("assigns a request ID and exposes it to the handler", func(t *testing.T) {
		var seenID string

		handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = utils.GetRequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		headerID := rec.Header().Get("X-Request-ID")
		assert.Len(t, headerID, 36, "generated request ID should be a UUID")
		assert.Equal(t, headerID, seenID, "handler context and response header must carry the same ID")
	})

	t.Run("reuses an upstream request ID", func(t *testing.T) {
		handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("X-Request-ID", "lb-assigned-id")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "lb-assigned-id", rec.Header().Get("X-Request-ID"))
	})

	t.Run("passes status and body through untouched", func(t *testing.T) {
		handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Forbidden"}`))
		}))

		req := httptest.NewRequest(http.MethodDelete, "/api/chat/not-yours", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	})
}

func TestRecoverer(t *testing.T) {
	t.Run("turns a panic into a 500 without leaking the value", func(t *testing.T) {
		handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("gemini client state corrupted")
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		rec := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			handler.ServeHTTP(rec, req)
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Internal Server Error")
		assert.NotContains(t, rec.Body.String(), "gemini")
	})

	t.Run("leaves healthy requests alone", func(t *testing.T) {
		handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("recovers non-string panic values", func(t *testing.T) {
		handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(assert.AnError)
		}))

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	serve := func(t *testing.T) http.Header {
		t.Helper()
		handler := SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
		return rec.Header()
	}

	t.Run("sets the baseline headers", func(t *testing.T) {
		headers := serve(t)

		assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
		assert.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
		assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	})

	t.Run("CSP permits Google profile pictures", func(t *testing.T) {
		csp := serve(t).Get("Content-Security-Policy")

		assert.Contains(t, csp, "default-src 'self'")
		// The login page inlines its scripts and styles.
		assert.Contains(t, csp, "script-src 'self' 'unsafe-inline'")
		assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
		// Google accounts serve avatars from lh3.googleusercontent.com.
		assert.Contains(t, csp, "img-src 'self' https://lh3.googleusercontent.com data:")
	})
}

func TestCORS(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("echoes the frontend origin with credentials", func(t *testing.T) {
		handler := CORS([]string{frontendOrigin})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		req.Header.Set("Origin", frontendOrigin)
		req.AddCookie(&http.Cookie{Name: utils.TokenCookieName, Value: "jwt"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, frontendOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		// The token cookie only travels cross-origin when credentials are allowed.
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight for a chat POST lists the allowed methods", func(t *testing.T) {
		handler := CORS([]string{frontendOrigin})(okHandler)

		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", frontendOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("exposes the Link header for paginated lists", func(t *testing.T) {
		handler := CORS([]string{frontendOrigin})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/chat?page=1", nil)
		req.Header.Set("Origin", frontendOrigin)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Link")
	})

	t.Run("does not vouch for an unlisted origin", func(t *testing.T) {
		handler := CORS([]string{frontendOrigin})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

// The chain mirrors the registration order in cmd/server: Recoverer first,
// then Logger, SecurityHeaders, CORS.
func TestMiddlewareChain(t *testing.T) {
	t.Run("a chat request picks up headers from every layer", func(t *testing.T) {
		chain := Recoverer()(Logger()(SecurityHeaders()(CORS([]string{frontendOrigin})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		))))

		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("Origin", frontendOrigin)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
		assert.Equal(t, frontendOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("a handler panic still ends in a 500", func(t *testing.T) {
		chain := Recoverer()(Logger()(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}),
		))

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			chain.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
