package auth

import (
	"net/http"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	CSRFTokenCookie    = "csrf_token"

	// The refresh cookie only travels to the auth endpoints.
	refreshCookiePath = "/v1/auth"
)

// CookieWriter writes and clears the session cookie triple.
type CookieWriter struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	RememberMe time.Duration
}

func NewCookieWriter(domain string, secure bool, accessTTL, refreshTTL, rememberMeTTL time.Duration) *CookieWriter {
	return &CookieWriter{
		Domain:     domain,
		Secure:     secure,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		RememberMe: rememberMeTTL,
	}
}

// SetAuthCookies writes the access, refresh and CSRF cookies. The CSRF
// cookie is the only one readable by scripts and shares the refresh
// lifetime so both expire together.
func (c *CookieWriter) SetAuthCookies(w http.ResponseWriter, session SessionTokens, rememberMe bool) {
	refreshTTL := c.RefreshTTL
	if rememberMe {
		refreshTTL = c.RememberMe
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     refreshCookiePath,
		Domain:   c.Domain,
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFTokenCookie,
		Value:    session.CSRFToken,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: false,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires the whole triple.
func (c *CookieWriter) ClearAuthCookies(w http.ResponseWriter) {
	for _, cookie := range []struct {
		name string
		path string
	}{
		{AccessTokenCookie, "/"},
		{RefreshTokenCookie, refreshCookiePath},
		{CSRFTokenCookie, "/"},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     cookie.name,
			Value:    "",
			Path:     cookie.path,
			Domain:   c.Domain,
			MaxAge:   -1,
			HttpOnly: cookie.name != CSRFTokenCookie,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
