package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/calendar-sharing/internal"
)

// Token types carried in the "type" claim. A token is only accepted for the
// purpose its type names.
const (
	TokenTypeAccess            = "access"
	TokenTypeRefresh           = "refresh"
	TokenTypeEmailVerification = "email_verification"
	TokenTypePasswordReset     = "password_reset"
)

// Claims represents JWT token claims
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID string) (string, error)
	GenerateRefreshToken(userID string, rememberMe bool) (string, error)
	GenerateEmailVerificationToken(userID string) (string, error)
	GeneratePasswordResetToken(userID string) (string, error)
	ValidateToken(tokenString, expectedType string) (*Claims, error)
}

type JWTTokenGenerator struct {
	Secret               []byte
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	RememberMeTTL        time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, accessTTL, refreshTTL, rememberMeTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:               []byte(secret),
		AccessTokenTTL:       accessTTL,
		RefreshTokenTTL:      refreshTTL,
		RememberMeTTL:        rememberMeTTL,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
	}
}

func (j *JWTTokenGenerator) generate(tokenType, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// GenerateAccessToken creates a short-lived access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID string) (string, error) {
	return j.generate(TokenTypeAccess, userID, j.AccessTokenTTL)
}

// GenerateRefreshToken creates a refresh token; remember-me stretches the
// lifetime.
func (j *JWTTokenGenerator) GenerateRefreshToken(userID string, rememberMe bool) (string, error) {
	ttl := j.RefreshTokenTTL
	if rememberMe {
		ttl = j.RememberMeTTL
	}
	return j.generate(TokenTypeRefresh, userID, ttl)
}

func (j *JWTTokenGenerator) GenerateEmailVerificationToken(userID string) (string, error) {
	return j.generate(TokenTypeEmailVerification, userID, j.VerificationTokenTTL)
}

func (j *JWTTokenGenerator) GeneratePasswordResetToken(userID string) (string, error) {
	return j.generate(TokenTypePasswordReset, userID, j.ResetTokenTTL)
}

// ValidateToken parses and verifies a token. Every failure mode, bad
// signature, malformed payload, expiry, wrong type, collapses into
// ErrInvalidToken so callers leak nothing about which check failed.
func (j *JWTTokenGenerator) ValidateToken(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return nil, internal.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
