package user

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/core/events"
)

// InvitationApplier converts pending invitations for an email into grants.
// Implemented by the sharing service; the conversion runs in one transaction.
type InvitationApplier interface {
	ApplyPendingOnRegistration(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

// Service handles registration and profile reads.
type Service struct {
	repo        Repository
	invitations InvitationApplier
	eventBus    *events.EventBus
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo Repository, invitations InvitationApplier, eventBus *events.EventBus, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		invitations: invitations,
		eventBus:    eventBus,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Register creates an account and immediately materializes any pending
// invitations addressed to the email into grants.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("registration validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	email := NormalizeEmail(dto.Email)

	existing, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         dto.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	applied, err := s.invitations.ApplyPendingOnRegistration(ctx, u.ID, u.Email)
	if err != nil {
		// The account exists; a failed conversion must surface so nothing is
		// half-applied silently.
		return nil, internal.NewInternalError("failed to apply pending invitations", err)
	}

	s.logger.Info("user registered",
		"user_id", u.ID,
		"invitations_applied", applied)

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, events.NewUserRegisteredEvent(u.ID.String(), u.Email, u.Name))
	}

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.ByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address parses.
func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
