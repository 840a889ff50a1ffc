package httpserver

import (
	"net/http"
	"strings"

	"github.com/lifeledger/lifeledger/internal/server/session"
)

// withRouteGuard redirects page navigation based on cookie presence alone:
// protected pages bounce anonymous visitors to the login page, and the
// login/signup pages bounce signed-in visitors to the dashboard. Token
// validity is not checked here; expired tokens are caught by the API
// handlers behind the page.
func (s *Server) withRouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie(session.IDTokenCookie)
		authenticated := err == nil

		path := r.URL.Path
		switch {
		case strings.HasPrefix(path, "/dashboard") && !authenticated:
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		case (path == "/login" || path == "/signup") && authenticated:
			http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
