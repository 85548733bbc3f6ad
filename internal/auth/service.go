package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/core/events"
	"github.com/frahmantamala/calendar-sharing/internal/user"
)

// SessionTokens is the triple written as cookies after login or refresh.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	CSRFToken    string `json:"csrf_token"`
}

// Service performs authentication business logic.
type Service struct {
	users      user.Repository
	tokens     TokenGenerator
	eventBus   *events.EventBus
	bcryptCost int
	logger     *slog.Logger
}

func NewService(users user.Repository, tokens TokenGenerator, eventBus *events.EventBus, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		eventBus:   eventBus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Login validates credentials and mints a session. Unknown email and wrong
// password return the same error so the response never reveals whether an
// account exists.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*user.User, SessionTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, SessionTokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	u, err := s.users.ByEmail(ctx, user.NormalizeEmail(dto.Email))
	if err != nil {
		return nil, SessionTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		// Burn a comparison anyway so timing does not separate the two cases.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0ZB/6N1IuFJu/LfSC5mA9x1r4V2"), []byte(dto.Password))
		return nil, SessionTokens{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, SessionTokens{}, internal.ErrInvalidCredentials
	}

	if err := s.EnforceBan(ctx, u); err != nil {
		return nil, SessionTokens{}, err
	}

	session, err := s.mintSession(u.ID, dto.RememberMe)
	if err != nil {
		return nil, SessionTokens{}, err
	}

	s.logger.Info("user logged in", "user_id", u.ID, "remember_me", dto.RememberMe)
	return u, session, nil
}

// Refresh rotates the whole session triple from a refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*user.User, SessionTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, SessionTokens{}, err
	}

	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, SessionTokens{}, err
	}

	if err := s.EnforceBan(ctx, u); err != nil {
		return nil, SessionTokens{}, err
	}

	session, err := s.mintSession(u.ID, false)
	if err != nil {
		return nil, SessionTokens{}, err
	}
	return u, session, nil
}

// ResolveAccessToken validates an access token and loads its user, with the
// ban check every authenticated request goes through.
func (s *Service) ResolveAccessToken(ctx context.Context, tokenString string) (*user.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, internal.ErrNotAuthenticated
	}

	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, internal.ErrNotAuthenticated
	}

	if err := s.EnforceBan(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnforceBan rejects banned accounts. A temporary ban whose end date has
// passed is lifted in place and the request proceeds.
func (s *Service) EnforceBan(ctx context.Context, u *user.User) error {
	if !u.IsBanned {
		return nil
	}

	if u.BanUntil != nil && u.BanUntil.Before(time.Now()) {
		if err := s.users.LiftBan(ctx, u.ID); err != nil {
			return internal.NewInternalError("failed to lift expired ban", err)
		}
		u.IsBanned = false
		u.BanUntil = nil
		u.BanReason = nil
		s.logger.Info("expired ban lifted", "user_id", u.ID)
		return nil
	}

	if u.BanUntil != nil {
		msg := fmt.Sprintf("Account is banned until %s", u.BanUntil.UTC().Format(time.RFC3339))
		return internal.NewForbiddenError(msg, internal.ErrCodeAccountBanned)
	}
	return internal.NewForbiddenError("Account is permanently banned", internal.ErrCodeAccountBanned)
}

// ForgotPassword always reports success; if the account exists a reset
// token is issued and the notification published.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.ByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		s.logger.Error("forgot password lookup failed", "error", err)
		return nil
	}
	if u == nil {
		return nil
	}

	token, err := s.tokens.GeneratePasswordResetToken(u.ID.String())
	if err != nil {
		s.logger.Error("failed to issue reset token", "error", err, "user_id", u.ID)
		return nil
	}

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, events.NewPasswordResetRequestedEvent(u.ID.String(), u.Email, u.Name, token))
	}
	return nil
}

// ResetPassword consumes a reset token. Tokens minted before the last
// password change are dead: changing the password invalidates every reset
// link issued earlier.
func (s *Service) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	if len(newPassword) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}

	claims, err := s.tokens.ValidateToken(tokenString, TokenTypePasswordReset)
	if err != nil {
		return err
	}

	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return err
	}

	if u.PasswordChangedAt != nil && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(*u.PasswordChangedAt) {
		return internal.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, string(hash), time.Now()); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password reset", "user_id", u.ID)
	return nil
}

// VerifyEmail consumes an email verification token.
func (s *Service) VerifyEmail(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ValidateToken(tokenString, TokenTypeEmailVerification)
	if err != nil {
		return err
	}

	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return err
	}

	if err := s.users.SetVerified(ctx, u.ID); err != nil {
		return internal.NewInternalError("failed to mark user verified", err)
	}

	s.logger.Info("email verified", "user_id", u.ID)
	return nil
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*user.User, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	u, err := s.users.ByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	return u, nil
}

func (s *Service) mintSession(userID uuid.UUID, rememberMe bool) (SessionTokens, error) {
	access, err := s.tokens.GenerateAccessToken(userID.String())
	if err != nil {
		return SessionTokens{}, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID.String(), rememberMe)
	if err != nil {
		return SessionTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	csrf, err := GenerateRandomToken()
	if err != nil {
		return SessionTokens{}, internal.NewInternalError("failed to generate csrf token", err)
	}
	return SessionTokens{AccessToken: access, RefreshToken: refresh, CSRFToken: csrf}, nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
