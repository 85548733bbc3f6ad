package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// EventPurger removes every event of a calendar together with signups,
// comments and attachments. Implemented by the event service.
type EventPurger interface {
	DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error
}

// SharingPurger removes links, groups, grants and invitations of a
// calendar. Implemented by the sharing service.
type SharingPurger interface {
	DeleteCalendarSharing(ctx context.Context, calendarID uuid.UUID) error
}

type Service struct {
	repo     Repository
	resolver *access.Resolver
	events   EventPurger
	sharing  SharingPurger
	logger   *slog.Logger
}

func NewService(repo Repository, resolver *access.Resolver, events EventPurger, sharing SharingPurger, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		events:   events,
		sharing:  sharing,
		logger:   logger,
	}
}

// requireAdmin mirrors the sharing gate for calendar-level management.
func (s *Service) requireAdmin(ctx context.Context, cal *Calendar, caller *internal.AuthUser) error {
	if caller == nil {
		return internal.ErrNotAuthenticated
	}
	if cal.OwnerID == caller.ID || caller.IsAdmin || caller.IsSuperadmin {
		return nil
	}
	p, err := s.resolver.Resolve(ctx, cal.ID, access.ForUser(caller.ID), nil)
	if err != nil {
		return err
	}
	if !permission.IsAdministrator(p) {
		return internal.ErrInsufficientAccess
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Calendar, error) {
	cal, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return nil, internal.ErrCalendarNotFound
	}
	return cal, nil
}

// Create makes a new calendar owned by the caller. A missing slug is derived
// from the title; a taken slug gets a numeric suffix.
func (s *Service) Create(ctx context.Context, caller *internal.AuthUser, dto CreateCalendarDTO) (*Calendar, error) {
	if caller == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	slug := dto.Slug
	if slug == "" {
		slug = Slugify(dto.Title)
	}
	if !ValidSlug(slug) {
		return nil, internal.NewValidationError("slug must be lowercase letters, digits and hyphens", internal.ErrCodeInvalidSlug)
	}
	slug, err := s.uniqueSlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	cal := &Calendar{
		ID:                 uuid.New(),
		OwnerID:            caller.ID,
		Slug:               slug,
		Title:              dto.Title,
		Description:        dto.Description,
		Timezone:           defaultString(dto.Timezone, "UTC"),
		Language:           defaultString(dto.Language, "en"),
		WeekStartsMonday:   dto.WeekStartsMonday,
		EmailNotifications: dto.EmailNotifications,
		CreatedAt:          time.Now(),
	}
	if err := s.repo.Create(ctx, cal); err != nil {
		return nil, internal.NewInternalError("failed to create calendar", err)
	}

	s.logger.Info("calendar created", "calendar_id", cal.ID, "slug", cal.Slug)
	return cal, nil
}

func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		existing, err := s.repo.BySlug(ctx, slug)
		if err != nil {
			return "", internal.NewInternalError("failed to check slug", err)
		}
		if existing == nil {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Get returns the calendar if the caller can see anything at all on it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, caller access.Caller) (*Calendar, permission.Permission, error) {
	cal, err := s.load(ctx, id)
	if err != nil {
		return nil, permission.NoAccess, err
	}
	p, err := s.resolver.Resolve(ctx, cal.ID, caller, nil)
	if err != nil {
		return nil, permission.NoAccess, err
	}
	if !permission.CanReadLimited(p) {
		return nil, permission.NoAccess, internal.ErrCalendarNotFound
	}
	return cal, p, nil
}

// GetBySlug is the public entry point used by share links.
func (s *Service) GetBySlug(ctx context.Context, slug string, caller access.Caller) (*Calendar, permission.Permission, error) {
	cal, err := s.repo.BySlug(ctx, slug)
	if err != nil {
		return nil, permission.NoAccess, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return nil, permission.NoAccess, internal.ErrCalendarNotFound
	}
	return s.Get(ctx, cal.ID, caller)
}

// ListMine returns the calendars the caller owns.
func (s *Service) ListMine(ctx context.Context, caller *internal.AuthUser) ([]*Calendar, error) {
	if caller == nil {
		return nil, internal.ErrNotAuthenticated
	}
	cals, err := s.repo.ForOwner(ctx, caller.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list calendars", err)
	}
	return cals, nil
}

// Update changes calendar settings; administrator only.
func (s *Service) Update(ctx context.Context, id uuid.UUID, caller *internal.AuthUser, dto UpdateCalendarDTO) (*Calendar, error) {
	cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return nil, err
	}

	if dto.Title != nil {
		if *dto.Title == "" {
			return nil, internal.NewValidationError("title cannot be empty", internal.ErrCodeValidationFailed)
		}
		cal.Title = *dto.Title
	}
	if dto.Description != nil {
		cal.Description = *dto.Description
	}
	if dto.Timezone != nil {
		cal.Timezone = *dto.Timezone
	}
	if dto.Language != nil {
		cal.Language = *dto.Language
	}
	if dto.WeekStartsMonday != nil {
		cal.WeekStartsMonday = *dto.WeekStartsMonday
	}
	if dto.EmailNotifications != nil {
		cal.EmailNotifications = *dto.EmailNotifications
	}
	if dto.Slug != nil && *dto.Slug != cal.Slug {
		if !ValidSlug(*dto.Slug) {
			return nil, internal.NewValidationError("slug must be lowercase letters, digits and hyphens", internal.ErrCodeInvalidSlug)
		}
		existing, err := s.repo.BySlug(ctx, *dto.Slug)
		if err != nil {
			return nil, internal.NewInternalError("failed to check slug", err)
		}
		if existing != nil {
			return nil, internal.NewConflictError("Slug is already in use", internal.ErrCodeInvalidSlug)
		}
		cal.Slug = *dto.Slug
	}

	if err := s.repo.Update(ctx, cal); err != nil {
		return nil, internal.NewInternalError("failed to update calendar", err)
	}
	return cal, nil
}

// Delete removes the calendar and everything under it. The cascade runs in
// dependency order: sub-calendars, events, tags, then the sharing surface,
// then the calendar row.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, caller *internal.AuthUser) error {
	cal, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return err
	}
	return s.deleteCascade(ctx, cal.ID)
}

func (s *Service) deleteCascade(ctx context.Context, id uuid.UUID) error {
	if err := s.events.DeleteForCalendar(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete events", err)
	}
	if err := s.repo.DeleteSubCalendars(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete sub-calendars", err)
	}
	if err := s.repo.DeleteTags(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete tags", err)
	}
	if err := s.sharing.DeleteCalendarSharing(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete calendar", err)
	}
	s.logger.Info("calendar deleted", "calendar_id", id)
	return nil
}

// DeleteOwnedCalendars runs the full cascade for every calendar of one
// owner. Used by the account deletion cascade.
func (s *Service) DeleteOwnedCalendars(ctx context.Context, ownerID uuid.UUID) error {
	cals, err := s.repo.ForOwner(ctx, ownerID)
	if err != nil {
		return internal.NewInternalError("failed to list calendars", err)
	}
	for _, cal := range cals {
		if err := s.deleteCascade(ctx, cal.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateSubCalendar adds a partition; administrator only.
func (s *Service) CreateSubCalendar(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, dto SubCalendarDTO) (*SubCalendar, error) {
	cal, err := s.load(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return nil, err
	}
	if dto.Name == "" {
		return nil, internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}

	sc := &SubCalendar{
		ID:         uuid.New(),
		CalendarID: calendarID,
		Name:       dto.Name,
		Color:      dto.Color,
		Active:     true,
		Position:   dto.Position,
	}
	if err := s.repo.CreateSubCalendar(ctx, sc); err != nil {
		return nil, internal.NewInternalError("failed to create sub-calendar", err)
	}
	return sc, nil
}

// SubCalendars lists the partitions visible to anyone who can see the
// calendar at all.
func (s *Service) SubCalendars(ctx context.Context, calendarID uuid.UUID, caller access.Caller) ([]*SubCalendar, error) {
	if _, _, err := s.Get(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	subs, err := s.repo.SubCalendars(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list sub-calendars", err)
	}
	return subs, nil
}

func (s *Service) UpdateSubCalendar(ctx context.Context, calendarID, subCalendarID uuid.UUID, caller *internal.AuthUser, dto SubCalendarDTO) (*SubCalendar, error) {
	cal, err := s.load(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return nil, err
	}

	sc, err := s.repo.SubCalendarByID(ctx, subCalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load sub-calendar", err)
	}
	if sc == nil || sc.CalendarID != calendarID {
		return nil, internal.NewNotFoundError("Sub-calendar not found", internal.ErrCodeSubCalendarNotFound)
	}

	if dto.Name != "" {
		sc.Name = dto.Name
	}
	if dto.Color != "" {
		sc.Color = dto.Color
	}
	if dto.Active != nil {
		sc.Active = *dto.Active
	}
	sc.Position = dto.Position

	if err := s.repo.UpdateSubCalendar(ctx, sc); err != nil {
		return nil, internal.NewInternalError("failed to update sub-calendar", err)
	}
	return sc, nil
}

func (s *Service) DeleteSubCalendar(ctx context.Context, calendarID, subCalendarID uuid.UUID, caller *internal.AuthUser) error {
	cal, err := s.load(ctx, calendarID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return err
	}

	sc, err := s.repo.SubCalendarByID(ctx, subCalendarID)
	if err != nil {
		return internal.NewInternalError("failed to load sub-calendar", err)
	}
	if sc == nil || sc.CalendarID != calendarID {
		return internal.NewNotFoundError("Sub-calendar not found", internal.ErrCodeSubCalendarNotFound)
	}
	if err := s.repo.DeleteSubCalendar(ctx, subCalendarID); err != nil {
		return internal.NewInternalError("failed to delete sub-calendar", err)
	}
	return nil
}

func (s *Service) CreateTag(ctx context.Context, calendarID uuid.UUID, caller *internal.AuthUser, name, color string) (*Tag, error) {
	cal, err := s.load(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}

	t := &Tag{ID: uuid.New(), CalendarID: calendarID, Name: name, Color: color}
	if err := s.repo.CreateTag(ctx, t); err != nil {
		return nil, internal.NewInternalError("failed to create tag", err)
	}
	return t, nil
}

func (s *Service) Tags(ctx context.Context, calendarID uuid.UUID, caller access.Caller) ([]*Tag, error) {
	if _, _, err := s.Get(ctx, calendarID, caller); err != nil {
		return nil, err
	}
	tags, err := s.repo.Tags(ctx, calendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list tags", err)
	}
	return tags, nil
}

func (s *Service) DeleteTag(ctx context.Context, calendarID, tagID uuid.UUID, caller *internal.AuthUser) error {
	cal, err := s.load(ctx, calendarID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, cal, caller); err != nil {
		return err
	}

	t, err := s.repo.TagByID(ctx, tagID)
	if err != nil {
		return internal.NewInternalError("failed to load tag", err)
	}
	if t == nil || t.CalendarID != calendarID {
		return internal.NewNotFoundError("Tag not found", internal.ErrCodeTagNotFound)
	}
	return s.repo.DeleteTag(ctx, tagID)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
