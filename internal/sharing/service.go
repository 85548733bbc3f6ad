package sharing

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/core/events"
	"github.com/frahmantamala/calendar-sharing/internal/group"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/user"
)

// Service is the management surface for everything sharing-related on a
// calendar: links, grants, groups and invitations. Every mutating operation
// runs through RequireCalendarAdmin first.
type Service struct {
	store     access.Store
	groups    group.Repository
	users     user.Repository
	pending   PendingRepository
	calendars CalendarReader
	resolver  *access.Resolver
	eventBus  *events.EventBus
	logger    *slog.Logger
}

func NewService(
	store access.Store,
	groups group.Repository,
	users user.Repository,
	pending PendingRepository,
	calendars CalendarReader,
	resolver *access.Resolver,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		groups:    groups,
		users:     users,
		pending:   pending,
		calendars: calendars,
		resolver:  resolver,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// RequireCalendarAdmin checks that the caller may manage sharing on the
// calendar. The owner, a global admin and the configured superadmin pass
// immediately; anyone else must resolve to exactly ADMINISTRATOR.
func (s *Service) RequireCalendarAdmin(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser) (*CalendarInfo, error) {
	cal, err := s.calendars.CalendarInfo(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return nil, internal.ErrCalendarNotFound
	}

	if caller == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if cal.OwnerID == caller.ID || caller.IsAdmin || caller.IsSuperadmin {
		return cal, nil
	}

	p, err := s.resolver.Resolve(ctx, calendarID, access.ForUser(caller.ID), nil)
	if err != nil {
		return nil, err
	}
	if !permission.IsAdministrator(p) {
		return nil, internal.ErrInsufficientAccess
	}
	return cal, nil
}

// MyPermission resolves the caller's effective permission; anonymous callers
// carry only a link token.
func (s *Service) MyPermission(ctx context.Context, calendarID uuid.UUID, caller access.Caller, subCalendarID *uuid.UUID) (permission.Permission, error) {
	cal, err := s.calendars.CalendarInfo(ctx, calendarID)
	if err != nil {
		return permission.NoAccess, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return permission.NoAccess, internal.ErrCalendarNotFound
	}
	return s.resolver.Resolve(ctx, calendarID, caller, subCalendarID)
}

// GenerateLinkToken returns a url-safe random token for access links.
func GenerateLinkToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func (s *Service) validateScope(ctx context.Context, calendarID uuid.UUID, subCalendarID *uuid.UUID) error {
	if subCalendarID == nil {
		return nil
	}
	ok, err := s.calendars.SubCalendarExists(ctx, calendarID, *subCalendarID)
	if err != nil {
		return internal.NewInternalError("failed to check sub-calendar", err)
	}
	if !ok {
		return internal.NewNotFoundError("Sub-calendar not found", internal.ErrCodeSubCalendarNotFound)
	}
	return nil
}

func (s *Service) groupOnCalendar(ctx context.Context, calendarID, groupID uuid.UUID) (*group.Group, error) {
	g, err := s.groups.ByID(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group", err)
	}
	if g == nil || g.CalendarID != calendarID {
		return nil, internal.ErrGroupNotFound
	}
	return g, nil
}

// CreateLink creates an access link together with its single grant row.
func (s *Service) CreateLink(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, dto CreateLinkDTO) (*LinkOut, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	perm, err := permission.Parse(string(dto.Permission))
	if err != nil {
		return nil, internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
	}
	if err := s.validateScope(ctx, calendarID, dto.SubCalendarID); err != nil {
		return nil, err
	}
	if dto.GroupID != nil {
		if _, err := s.groupOnCalendar(ctx, calendarID, *dto.GroupID); err != nil {
			return nil, err
		}
	}

	token, err := GenerateLinkToken()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate link token", err)
	}

	link := &access.Link{
		ID:         uuid.New(),
		CalendarID: calendarID,
		Token:      token,
		Label:      dto.Label,
		Active:     true,
		GroupID:    dto.GroupID,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateLink(ctx, link); err != nil {
		return nil, internal.NewInternalError("failed to create link", err)
	}

	grant := &access.Grant{
		ID:            uuid.New(),
		CalendarID:    calendarID,
		SubCalendarID: dto.SubCalendarID,
		Grantee:       access.LinkGrantee(link.ID),
		Permission:    perm,
	}
	if err := s.store.CreateGrant(ctx, grant); err != nil {
		return nil, internal.NewInternalError("failed to create link grant", err)
	}

	s.logger.Info("access link created", "calendar_id", calendarID, "link_id", link.ID)
	return s.linkOut(ctx, link)
}

func (s *Service) linkOut(ctx context.Context, link *access.Link) (*LinkOut, error) {
	out := &LinkOut{
		ID:         link.ID,
		CalendarID: link.CalendarID,
		Token:      link.Token,
		Label:      link.Label,
		Active:     link.Active,
		GroupID:    link.GroupID,
		CreatedAt:  link.CreatedAt,
	}

	grants, err := s.store.ListGrantsForGrantee(ctx, link.CalendarID, access.LinkGrantee(link.ID))
	if err != nil {
		return nil, internal.NewInternalError("failed to load link grant", err)
	}
	if len(grants) > 0 {
		out.Permission = grants[0].Permission
		out.SubCalendarID = grants[0].SubCalendarID
	} else {
		out.Permission = permission.NoAccess
	}

	if link.GroupID != nil {
		g, err := s.groups.ByID(ctx, *link.GroupID)
		if err == nil && g != nil {
			out.GroupName = g.Name
		}
	}
	return out, nil
}

func (s *Service) ListLinks(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser) ([]*LinkOut, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	links, err := s.store.ListLinks(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list links", err)
	}
	out := make([]*LinkOut, 0, len(links))
	for _, link := range links {
		lo, err := s.linkOut(ctx, link)
		if err != nil {
			return nil, err
		}
		out = append(out, lo)
	}
	return out, nil
}

func (s *Service) linkOnCalendar(ctx context.Context, calendarID, linkID uuid.UUID) (*access.Link, error) {
	link, err := s.store.LinkByID(ctx, linkID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load link", err)
	}
	if link == nil || link.CalendarID != calendarID {
		return nil, internal.ErrLinkNotFound
	}
	return link, nil
}

// UpdateLink changes label, active flag, permission or group binding.
func (s *Service) UpdateLink(ctx context.Context, calendarID, linkID uuid.UUID, caller *internal.AuthUser, dto UpdateLinkDTO) (*LinkOut, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	link, err := s.linkOnCalendar(ctx, calendarID, linkID)
	if err != nil {
		return nil, err
	}

	if dto.Label != nil {
		link.Label = *dto.Label
	}
	if dto.Active != nil {
		link.Active = *dto.Active
	}
	if dto.ClearGroup {
		link.GroupID = nil
	} else if dto.GroupID != nil {
		if _, err := s.groupOnCalendar(ctx, calendarID, *dto.GroupID); err != nil {
			return nil, err
		}
		link.GroupID = dto.GroupID
	}

	if err := s.store.UpdateLink(ctx, link); err != nil {
		return nil, internal.NewInternalError("failed to update link", err)
	}

	if dto.Permission != nil {
		perm, err := permission.Parse(string(*dto.Permission))
		if err != nil {
			return nil, internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
		}
		grants, err := s.store.ListGrantsForGrantee(ctx, calendarID, access.LinkGrantee(link.ID))
		if err != nil {
			return nil, internal.NewInternalError("failed to load link grant", err)
		}
		for _, g := range grants {
			if err := s.store.UpdateGrantPermission(ctx, g.ID, perm); err != nil {
				return nil, internal.NewInternalError("failed to update link grant", err)
			}
		}
	}

	return s.linkOut(ctx, link)
}

// DeleteLink removes the link and its grant rows.
func (s *Service) DeleteLink(ctx context.Context, calendarID, linkID uuid.UUID, caller *internal.AuthUser) error {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return err
	}
	if _, err := s.linkOnCalendar(ctx, calendarID, linkID); err != nil {
		return err
	}
	if err := s.store.DeleteLink(ctx, linkID); err != nil {
		return internal.NewInternalError("failed to delete link", err)
	}
	s.logger.Info("access link deleted", "calendar_id", calendarID, "link_id", linkID)
	return nil
}

// ListAccess returns the non-link grants with grantee display data.
func (s *Service) ListAccess(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser) ([]*GrantOut, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	grants, err := s.store.ListGrants(ctx, calendarID, true)
	if err != nil {
		return nil, internal.NewInternalError("failed to list access entries", err)
	}

	out := make([]*GrantOut, 0, len(grants))
	for _, g := range grants {
		entry := &GrantOut{
			ID:            g.ID,
			CalendarID:    g.CalendarID,
			SubCalendarID: g.SubCalendarID,
			Permission:    g.Permission,
		}
		switch g.Grantee.Kind {
		case access.GranteeUser:
			id := g.Grantee.ID
			entry.UserID = &id
			if u, err := s.users.ByID(ctx, id); err == nil && u != nil {
				entry.UserEmail = u.Email
				entry.UserName = u.Name
			}
		case access.GranteeGroup:
			id := g.Grantee.ID
			entry.GroupID = &id
			if grp, err := s.groups.ByID(ctx, id); err == nil && grp != nil {
				entry.GroupName = grp.Name
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// CreateAccess adds a direct user or group grant.
func (s *Service) CreateAccess(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, dto CreateAccessDTO) (*access.Grant, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	perm, err := permission.Parse(string(dto.Permission))
	if err != nil {
		return nil, internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
	}
	if err := s.validateScope(ctx, calendarID, dto.SubCalendarID); err != nil {
		return nil, err
	}

	var grantee access.Grantee
	switch {
	case dto.UserID != nil && dto.GroupID == nil:
		u, err := s.users.ByID(ctx, *dto.UserID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load user", err)
		}
		if u == nil {
			return nil, internal.ErrUserNotFound
		}
		grantee = access.UserGrantee(*dto.UserID)
	case dto.GroupID != nil && dto.UserID == nil:
		if _, err := s.groupOnCalendar(ctx, calendarID, *dto.GroupID); err != nil {
			return nil, err
		}
		grantee = access.GroupGrantee(*dto.GroupID)
	default:
		return nil, internal.NewValidationError("exactly one of user_id or group_id is required", internal.ErrCodeValidationFailed)
	}

	existing, err := s.store.FindGrant(ctx, calendarID, grantee, dto.SubCalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check existing access", err)
	}
	if existing != nil {
		return nil, internal.ErrAccessExists
	}

	grant := &access.Grant{
		ID:            uuid.New(),
		CalendarID:    calendarID,
		SubCalendarID: dto.SubCalendarID,
		Grantee:       grantee,
		Permission:    perm,
	}
	if err := s.store.CreateGrant(ctx, grant); err != nil {
		return nil, internal.NewInternalError("failed to create access entry", err)
	}
	return grant, nil
}

func (s *Service) grantOnCalendar(ctx context.Context, calendarID, grantID uuid.UUID) (*access.Grant, error) {
	g, err := s.store.GrantByID(ctx, grantID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load access entry", err)
	}
	if g == nil || g.CalendarID != calendarID {
		return nil, internal.ErrAccessNotFound
	}
	return g, nil
}

func (s *Service) UpdateAccess(ctx context.Context, calendarID, grantID uuid.UUID, caller *internal.AuthUser, p permission.Permission) error {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return err
	}
	perm, err := permission.Parse(string(p))
	if err != nil {
		return internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
	}
	if _, err := s.grantOnCalendar(ctx, calendarID, grantID); err != nil {
		return err
	}
	if err := s.store.UpdateGrantPermission(ctx, grantID, perm); err != nil {
		return internal.NewInternalError("failed to update access entry", err)
	}
	return nil
}

func (s *Service) DeleteAccess(ctx context.Context, calendarID, grantID uuid.UUID, caller *internal.AuthUser) error {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return err
	}
	if _, err := s.grantOnCalendar(ctx, calendarID, grantID); err != nil {
		return err
	}
	if err := s.store.DeleteGrant(ctx, grantID); err != nil {
		return internal.NewInternalError("failed to delete access entry", err)
	}
	return nil
}

// UpsertGroupGrant creates or updates the group's grant for one scope.
func (s *Service) UpsertGroupGrant(ctx context.Context, calendarID, groupID uuid.UUID, caller *internal.AuthUser, p permission.Permission, subCalendarID *uuid.UUID) (*access.Grant, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	perm, err := permission.Parse(string(p))
	if err != nil {
		return nil, internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
	}
	if _, err := s.groupOnCalendar(ctx, calendarID, groupID); err != nil {
		return nil, err
	}
	if err := s.validateScope(ctx, calendarID, subCalendarID); err != nil {
		return nil, err
	}

	grantee := access.GroupGrantee(groupID)
	existing, err := s.store.FindGrant(ctx, calendarID, grantee, subCalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check existing access", err)
	}
	if existing != nil {
		if err := s.store.UpdateGrantPermission(ctx, existing.ID, perm); err != nil {
			return nil, internal.NewInternalError("failed to update group access", err)
		}
		existing.Permission = perm
		return existing, nil
	}

	grant := &access.Grant{
		ID:            uuid.New(),
		CalendarID:    calendarID,
		SubCalendarID: subCalendarID,
		Grantee:       grantee,
		Permission:    perm,
	}
	if err := s.store.CreateGrant(ctx, grant); err != nil {
		return nil, internal.NewInternalError("failed to create group access", err)
	}
	return grant, nil
}

// CreateGroup adds a member group to the calendar.
func (s *Service) CreateGroup(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, name string) (*group.Group, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, internal.NewValidationError("group name is required", internal.ErrCodeValidationFailed)
	}

	g := &group.Group{
		ID:         uuid.New(),
		CalendarID: calendarID,
		Name:       name,
		CreatedAt:  time.Now(),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, internal.NewInternalError("failed to create group", err)
	}
	return g, nil
}

func (s *Service) ListGroups(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser) ([]*GroupOut, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	grps, err := s.groups.ForCalendar(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list groups", err)
	}

	out := make([]*GroupOut, 0, len(grps))
	for _, g := range grps {
		members, err := s.groups.Members(ctx, g.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to list group members", err)
		}
		out = append(out, &GroupOut{Group: *g, Members: members})
	}
	return out, nil
}

// DeleteGroup removes the group's grants first, then its memberships and the
// group itself.
func (s *Service) DeleteGroup(ctx context.Context, calendarID, groupID uuid.UUID, caller *internal.AuthUser) error {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return err
	}
	if _, err := s.groupOnCalendar(ctx, calendarID, groupID); err != nil {
		return err
	}
	if err := s.store.DeleteGrantsForGrantee(ctx, access.GroupGrantee(groupID)); err != nil {
		return internal.NewInternalError("failed to delete group access", err)
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return internal.NewInternalError("failed to delete group", err)
	}
	s.logger.Info("group deleted", "calendar_id", calendarID, "group_id", groupID)
	return nil
}

// Invite shares the calendar with an email address. A registered address
// gets a direct grant immediately; an unknown one gets a pending invitation
// converted at registration. Either way the notification email is
// best-effort and only sent when the calendar has notifications enabled.
func (s *Service) Invite(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, dto InviteDTO) (*InviteResult, error) {
	cal, err := s.RequireCalendarAdmin(ctx, calendarID, caller)
	if err != nil {
		return nil, err
	}
	perm, err := permission.Parse(string(dto.Permission))
	if err != nil {
		return nil, internal.NewValidationError("unknown permission level", internal.ErrCodeValidationFailed)
	}
	email := user.NormalizeEmail(dto.Email)
	if !user.ValidEmail(email) {
		return nil, internal.NewValidationError("email is invalid", internal.ErrCodeInvalidEmail)
	}
	if err := s.validateScope(ctx, calendarID, dto.SubCalendarID); err != nil {
		return nil, err
	}
	if dto.GroupID != nil {
		if _, err := s.groupOnCalendar(ctx, calendarID, *dto.GroupID); err != nil {
			return nil, err
		}
	}

	invitee, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up invitee", err)
	}

	result := &InviteResult{Email: email, Permission: perm, UserExists: invitee != nil}

	if invitee != nil {
		grantee := access.UserGrantee(invitee.ID)
		existing, err := s.store.FindGrant(ctx, calendarID, grantee, dto.SubCalendarID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check existing access", err)
		}
		if existing != nil {
			return nil, internal.ErrAccessExists
		}

		grant := &access.Grant{
			ID:            uuid.New(),
			CalendarID:    calendarID,
			SubCalendarID: dto.SubCalendarID,
			Grantee:       grantee,
			Permission:    perm,
		}
		if err := s.store.CreateGrant(ctx, grant); err != nil {
			return nil, internal.NewInternalError("failed to create access entry", err)
		}
		if dto.GroupID != nil {
			if err := s.groups.AddMember(ctx, *dto.GroupID, invitee.ID); err != nil {
				s.logger.Error("failed to add invitee to group", "error", err, "group_id", *dto.GroupID)
			}
		}
		result.GrantID = &grant.ID
	} else {
		existing, err := s.pending.Find(ctx, calendarID, email)
		if err != nil {
			return nil, internal.NewInternalError("failed to check pending invitations", err)
		}
		if existing != nil {
			return nil, internal.ErrInvitationExists
		}

		inv := &PendingInvitation{
			ID:            uuid.New(),
			CalendarID:    calendarID,
			Email:         email,
			Permission:    perm,
			SubCalendarID: dto.SubCalendarID,
			GroupID:       dto.GroupID,
			InvitedBy:     caller.ID,
			CreatedAt:     time.Now(),
		}
		if err := s.pending.Create(ctx, inv); err != nil {
			return nil, internal.NewInternalError("failed to create invitation", err)
		}
		result.InvitationID = &inv.ID
	}

	if cal.EmailNotifications && s.eventBus != nil {
		name := dto.Name
		if invitee != nil {
			name = invitee.Name
		}
		_ = s.eventBus.Publish(ctx, events.NewInvitationCreatedEvent(
			calendarID.String(), cal.Title, email, name,
			caller.Name, string(perm), cal.Language, invitee != nil,
		))
		result.EmailSent = true
		if result.InvitationID != nil {
			if err := s.pending.MarkEmailSent(ctx, *result.InvitationID); err != nil {
				s.logger.Error("failed to mark invitation email sent", "error", err)
			}
		}
	}

	s.logger.Info("invitation processed",
		"calendar_id", calendarID,
		"user_exists", result.UserExists,
		"email_sent", result.EmailSent)
	return result, nil
}

func (s *Service) ListPending(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser) ([]*PendingInvitation, error) {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	invs, err := s.pending.ListForCalendar(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list invitations", err)
	}
	return invs, nil
}

func (s *Service) DeletePending(ctx context.Context, calendarID, invitationID uuid.UUID, caller *internal.AuthUser) error {
	if _, err := s.RequireCalendarAdmin(ctx, calendarID, caller); err != nil {
		return err
	}
	inv, err := s.pending.ByID(ctx, invitationID)
	if err != nil {
		return internal.NewInternalError("failed to load invitation", err)
	}
	if inv == nil || inv.CalendarID != calendarID {
		return internal.ErrInvitationNotFound
	}
	if err := s.pending.Delete(ctx, invitationID); err != nil {
		return internal.NewInternalError("failed to delete invitation", err)
	}
	return nil
}

// ApplyPendingOnRegistration converts every pending invitation addressed to
// the email into a grant, joining bound groups along the way. The whole
// conversion is one transaction in the repository.
func (s *Service) ApplyPendingOnRegistration(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	n, err := s.pending.ApplyPending(ctx, userID, user.NormalizeEmail(email))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pending invitations applied", "user_id", userID, "count", n)
	}
	return n, nil
}

// DeleteGrantsForUser removes every grant held directly by the user. Used by
// the account deletion cascade.
func (s *Service) DeleteGrantsForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.DeleteGrantsForGrantee(ctx, access.UserGrantee(userID))
}

// DeleteInvitationsForUser removes invitations the user sent and invitations
// addressed to their email. Used by the account deletion cascade.
func (s *Service) DeleteInvitationsForUser(ctx context.Context, userID uuid.UUID, email string) error {
	return s.pending.DeleteForUser(ctx, userID, user.NormalizeEmail(email))
}

// DeleteCalendarSharing removes links, groups, grants and invitations of a
// calendar, in that order. Used by the calendar deletion cascade.
func (s *Service) DeleteCalendarSharing(ctx context.Context, calendarID uuid.UUID) error {
	links, err := s.store.ListLinks(ctx, calendarID)
	if err != nil {
		return internal.NewInternalError("failed to list links", err)
	}
	for _, link := range links {
		if err := s.store.DeleteLink(ctx, link.ID); err != nil {
			return internal.NewInternalError("failed to delete link", err)
		}
	}

	grps, err := s.groups.ForCalendar(ctx, calendarID)
	if err != nil {
		return internal.NewInternalError("failed to list groups", err)
	}
	for _, g := range grps {
		if err := s.store.DeleteGrantsForGrantee(ctx, access.GroupGrantee(g.ID)); err != nil {
			return internal.NewInternalError("failed to delete group access", err)
		}
		if err := s.groups.Delete(ctx, g.ID); err != nil {
			return internal.NewInternalError("failed to delete group", err)
		}
	}

	grants, err := s.store.ListGrants(ctx, calendarID, false)
	if err != nil {
		return internal.NewInternalError("failed to list access entries", err)
	}
	for _, g := range grants {
		if err := s.store.DeleteGrant(ctx, g.ID); err != nil {
			return internal.NewInternalError("failed to delete access entry", err)
		}
	}

	if err := s.pending.DeleteForCalendar(ctx, calendarID); err != nil {
		return internal.NewInternalError("failed to delete invitations", err)
	}
	return nil
}
