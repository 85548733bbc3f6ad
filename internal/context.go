package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ContextUserKey      ctxKey = "user"
	ContextLinkTokenKey ctxKey = "linkToken"
)

// AuthUser is the request-scoped view of an authenticated user shared by
// middleware and feature packages. IsSuperadmin is resolved once at login
// from configuration, not re-read from ambient state.
type AuthUser struct {
	ID           uuid.UUID
	Email        string
	Name         string
	IsAdmin      bool
	IsSuperadmin bool
}

func UserFromContext(ctx context.Context) (*AuthUser, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*AuthUser)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// LinkTokenFromContext returns the access-link token presented with the
// request, if any. Anonymous link-holders carry only this.
func LinkTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tok, ok := ctx.Value(ContextLinkTokenKey).(string)
	return tok, ok && tok != ""
}

func ContextWithLinkToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextLinkTokenKey, token)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
