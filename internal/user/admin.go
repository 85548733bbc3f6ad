package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
)

// MembershipRemover drops a user from every group they belong to.
type MembershipRemover interface {
	RemoveUserFromAllGroups(ctx context.Context, userID uuid.UUID) error
}

// GrantRemover drops every access entry held by a user.
type GrantRemover interface {
	DeleteGrantsForUser(ctx context.Context, userID uuid.UUID) error
}

// InvitationCleaner removes invitations the user sent or that are addressed
// to their email.
type InvitationCleaner interface {
	DeleteInvitationsForUser(ctx context.Context, userID uuid.UUID, email string) error
}

// AuthorshipNullifier detaches the user from content they authored so the
// content survives the account.
type AuthorshipNullifier interface {
	NullifyAuthorship(ctx context.Context, userID uuid.UUID) error
}

// OwnedCalendarDeleter runs the full calendar cascade for every calendar the
// user owns.
type OwnedCalendarDeleter interface {
	DeleteOwnedCalendars(ctx context.Context, ownerID uuid.UUID) error
}

// AdminService exposes the superadmin-only account operations. The transport
// layer is responsible for gating every call behind the superadmin check.
type AdminService struct {
	repo        Repository
	memberships MembershipRemover
	grants      GrantRemover
	invitations InvitationCleaner
	authorship  AuthorshipNullifier
	calendars   OwnedCalendarDeleter
	logger      *slog.Logger
}

func NewAdminService(
	repo Repository,
	memberships MembershipRemover,
	grants GrantRemover,
	invitations InvitationCleaner,
	authorship AuthorshipNullifier,
	calendars OwnedCalendarDeleter,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		repo:        repo,
		memberships: memberships,
		grants:      grants,
		invitations: invitations,
		authorship:  authorship,
		calendars:   calendars,
		logger:      logger,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *AdminService) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return internal.ErrUserNotFound
	}
	if err := s.repo.SetAdmin(ctx, userID, isAdmin); err != nil {
		return internal.NewInternalError("failed to update admin flag", err)
	}
	s.logger.Info("admin flag changed", "user_id", userID, "is_admin", isAdmin)
	return nil
}

// Ban blocks an account. A temporary ban needs an end date; a permanent ban
// has none.
func (s *AdminService) Ban(ctx context.Context, userID uuid.UUID, dto BanDTO) error {
	if !dto.Permanent && dto.Until == nil {
		return internal.NewValidationError("a temporary ban requires an end date", internal.ErrCodeBanEndRequired)
	}
	if !dto.Permanent && dto.Until.Before(time.Now()) {
		return internal.NewValidationError("ban end date is in the past", internal.ErrCodeBanEndRequired)
	}

	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return internal.ErrUserNotFound
	}

	until := dto.Until
	if dto.Permanent {
		until = nil
	}
	if err := s.repo.SetBan(ctx, userID, until, dto.Reason); err != nil {
		return internal.NewInternalError("failed to ban user", err)
	}
	s.logger.Info("user banned", "user_id", userID, "permanent", dto.Permanent)
	return nil
}

func (s *AdminService) Unban(ctx context.Context, userID uuid.UUID) error {
	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return internal.ErrUserNotFound
	}
	if err := s.repo.LiftBan(ctx, userID); err != nil {
		return internal.NewInternalError("failed to lift ban", err)
	}
	s.logger.Info("ban lifted", "user_id", userID)
	return nil
}

// DeleteUser hard-deletes an account together with everything hanging off
// it. The steps run in dependency order so no orphan rows survive:
// memberships, then grants, then invitations, then authorship pointers, then
// owned calendars, then the account row.
func (s *AdminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return internal.ErrUserNotFound
	}

	if err := s.memberships.RemoveUserFromAllGroups(ctx, userID); err != nil {
		return internal.NewInternalError("failed to remove group memberships", err)
	}
	if err := s.grants.DeleteGrantsForUser(ctx, userID); err != nil {
		return internal.NewInternalError("failed to delete access entries", err)
	}
	if err := s.invitations.DeleteInvitationsForUser(ctx, userID, u.Email); err != nil {
		return internal.NewInternalError("failed to delete invitations", err)
	}
	if err := s.authorship.NullifyAuthorship(ctx, userID); err != nil {
		return internal.NewInternalError("failed to detach authored content", err)
	}
	if err := s.calendars.DeleteOwnedCalendars(ctx, userID); err != nil {
		return internal.NewInternalError("failed to delete owned calendars", err)
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return internal.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
