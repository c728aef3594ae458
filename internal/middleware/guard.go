package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/internal/services"
	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// Route classes for the page guard. Prefix matching keeps the guard
// independent of the router's exact route table.
var (
	// guardPublicPaths are exact paths that always pass.
	guardPublicPaths = map[string]struct{}{
		"/":                 {},
		"/api/signup":       {},
		"/api/login":        {},
		"/api/google-login": {},
		"/api/logout":       {},
		"/health":           {},
		"/ready":            {},
		"/metrics":          {},
		"/favicon.ico":      {},
	}

	// guardPublicPrefixes are path prefixes that always pass (static assets).
	guardPublicPrefixes = []string{
		"/static/",
		"/assets/",
	}

	// guardProtectedPrefixes are path prefixes that require a verifiable
	// token before the request reaches routing.
	guardProtectedPrefixes = []string{
		"/chat",
		"/api/chat",
		"/api/profile",
	}
)

// PageGuard creates the cheap pre-routing access filter. It only checks
// that the token cookie exists and verifies (signature and expiry); it
// never touches the database. Unauthenticated requests to protected
// paths are redirected to the landing page instead of receiving an API
// error, since these are browser navigations.
//
// RequireUser remains the real authority behind API routes; the guard
// exists to bounce obviously unauthenticated page loads early. A request
// passing the guard can still fail RequireUser when the user row is gone.
//
// Usage (before routing):
//
//	r.Use(middleware.PageGuard(tokenSvc))
func PageGuard(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isGuardPublic(path) || !isGuardProtected(path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(utils.TokenCookieName)
			if err != nil || cookie.Value == "" {
				log.Debug().Str("path", path).Msg("Page guard: no token, redirecting")
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			if _, err := tokens.Verify(cookie.Value); err != nil {
				log.Debug().Err(err).Str("path", path).Msg("Page guard: bad token, redirecting")
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isGuardPublic(path string) bool {
	if _, ok := guardPublicPaths[path]; ok {
		return true
	}
	for _, prefix := range guardPublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isGuardProtected(path string) bool {
	for _, prefix := range guardProtectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
