package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/user"
)

// Middleware resolves the caller on incoming requests.
type Middleware struct {
	service         *Service
	superadminEmail string
}

func NewMiddleware(service *Service, superadminEmail string) *Middleware {
	return &Middleware{
		service:         service,
		superadminEmail: user.NormalizeEmail(superadminEmail),
	}
}

func (m *Middleware) toAuthUser(u *user.User) *internal.AuthUser {
	return &internal.AuthUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsAdmin:      u.IsAdmin,
		IsSuperadmin: m.superadminEmail != "" && u.Email == m.superadminEmail,
	}
}

// tokenFromRequest prefers the access cookie and falls back to a Bearer
// header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAuth rejects requests without a valid, unbanned session.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeAuthError(w, internal.ErrNotAuthenticated)
			return
		}

		u, err := m.service.ResolveAccessToken(r.Context(), token)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := internal.ContextWithUser(r.Context(), m.toAuthUser(u))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves the caller when a valid session is present and
// otherwise lets the request through anonymously. A banned account is still
// rejected rather than silently downgraded to anonymous.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if token := tokenFromRequest(r); token != "" {
			u, err := m.service.ResolveAccessToken(ctx, token)
			if err == nil {
				ctx = internal.ContextWithUser(ctx, m.toAuthUser(u))
			} else if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeAccountBanned {
				writeAuthError(w, err)
				return
			}
		}

		// A share-link token may ride along on any read request.
		if linkToken := r.URL.Query().Get("link_token"); linkToken != "" {
			ctx = internal.ContextWithLinkToken(ctx, linkToken)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
}
