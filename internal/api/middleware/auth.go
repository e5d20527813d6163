package middleware

import (
	"net/http"
	"strings"

	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/session"
)

// LoginPath is where logged out browsers are sent.
const LoginPath = "/login"

// WantsJSON reports whether the caller expects a JSON answer rather than a
// page: API paths, script requests and DELETE calls.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.URL.Path, "/api/") || r.Method == http.MethodDelete {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RequireLogin rejects requests without a session. Browsers are redirected
// to the login page, JSON callers get 401.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			response.Fail(w, domain.NewUnauthorizedError("Silakan login terlebih dahulu."))
			return
		}
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}

// Actor returns the logged in user of the request. The zero Actor is
// returned for anonymous requests.
func Actor(r *http.Request) service.Actor {
	s := session.FromContext(r.Context())
	if s == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: s.Data.UserID, Username: s.Data.Username}
}
