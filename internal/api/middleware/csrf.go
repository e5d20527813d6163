package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/pantau/pantau/internal/api/response"
)

// CSRFField is the form field holding the CSRF token.
const CSRFField = "_csrf"

// CSRF protects unsafe methods with gorilla/csrf. An empty key disables
// the check. Without secure cookies the request is marked plaintext so the
// origin check accepts http:// referers.
func CSRF(key string, secure bool) func(http.Handler) http.Handler {
	if key == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	protect := csrf.Protect([]byte(key),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(CSRFField),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusForbidden, response.Result{
		Success: false,
		Message: "Token keamanan tidak valid. Muat ulang halaman lalu coba lagi.",
	})
}

// CSRFToken returns the token for r, or "" when protection is disabled.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
