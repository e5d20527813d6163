package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideField is the form field carrying the real method of an
// HTML form post.
const MethodOverrideField = "_method"

// MethodOverride turns a POST with _method=PUT|PATCH|DELETE into that
// method. The X-HTTP-Method-Override header is honored too. Multipart
// bodies are left untouched so uploads are parsed once by the handler.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m := r.Header.Get("X-HTTP-Method-Override")
			if m == "" && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				m = r.PostFormValue(MethodOverrideField)
			}
			switch strings.ToUpper(m) {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = strings.ToUpper(m)
			}
		}
		next.ServeHTTP(w, r)
	})
}
