package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/frahmantamala/calendar-sharing/internal/auth"
)

// CSRF enforces the cookie/header double-submit check on state-changing
// requests. It only applies to cookie sessions: requests authenticating
// with a bearer token carry no ambient credential a cross-site form could
// ride on. Exempt path prefixes (the auth endpoints, which run before a
// CSRF token exists) skip the check.
func CSRF(exemptPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if _, err := r.Cookie(auth.AccessTokenCookie); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(auth.CSRFTokenCookie)
			if err != nil || cookie.Value == "" {
				writeCSRFError(w)
				return
			}

			header := r.Header.Get("X-CSRF-Token")
			if subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
				writeCSRFError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeCSRFError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token missing or invalid","code":"CSRF_FAILED"}`))
}
