package group

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
)

// LinkFinder is the slice of the access store the claim flow needs.
type LinkFinder interface {
	ActiveLinkByToken(ctx context.Context, calendarID uuid.UUID, token string) (*access.Link, error)
}

// Service handles group membership. Group CRUD is exposed through the
// sharing surface; the resolver consults membership via its own SQL join.
type Service struct {
	repo   Repository
	links  LinkFinder
	logger *slog.Logger
}

func NewService(repo Repository, links LinkFinder, logger *slog.Logger) *Service {
	return &Service{repo: repo, links: links, logger: logger}
}

// GroupsOf returns the ids of all groups the user belongs to.
func (s *Service) GroupsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.GroupIDsForUser(ctx, userID)
}

func (s *Service) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return s.repo.IsMember(ctx, groupID, userID)
}

// AddMember enrolls the user, failing with Conflict if already a member.
func (s *Service) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return internal.NewInternalError("failed to check group membership", err)
	}
	if member {
		return internal.ErrAlreadyMember
	}
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		return internal.NewInternalError("failed to add group member", err)
	}
	s.logger.Info("group member added", "group_id", groupID, "user_id", userID)
	return nil
}

// RemoveMember is idempotent: removing a non-member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return internal.NewInternalError("failed to remove group member", err)
	}
	return nil
}

// ClaimLink joins the user into the group bound to an active link. The join
// is idempotent; the group identity is always returned. Inactive, unknown or
// unbound links fail with NotFound.
func (s *Service) ClaimLink(ctx context.Context, calendarID uuid.UUID, token string, userID uuid.UUID) (*Group, error) {
	link, err := s.links.ActiveLinkByToken(ctx, calendarID, token)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up access link", err)
	}
	if link == nil || link.GroupID == nil {
		return nil, internal.NewNotFoundError("Link is invalid or has no bound group", internal.ErrCodeLinkNotFound)
	}

	grp, err := s.repo.ByID(ctx, *link.GroupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group", err)
	}
	if grp == nil {
		return nil, internal.ErrGroupNotFound
	}

	member, err := s.repo.IsMember(ctx, grp.ID, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check group membership", err)
	}
	if !member {
		if err := s.repo.AddMember(ctx, grp.ID, userID); err != nil {
			return nil, internal.NewInternalError("failed to join group", err)
		}
		s.logger.Info("link claimed, user joined group",
			"calendar_id", calendarID, "group_id", grp.ID, "user_id", userID)
	}
	return grp, nil
}
