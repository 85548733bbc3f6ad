package event

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/sharing"
	"github.com/frahmantamala/calendar-sharing/internal/storage"
	"github.com/frahmantamala/calendar-sharing/internal/translation"
)

// translatedFields are the event fields worth machine-translating.
var translatedFields = []string{"title", "location", "notes"}

// CalendarSource is what the event service needs to know about calendars.
// Implemented by the calendar storage layer.
type CalendarSource interface {
	CalendarInfo(ctx context.Context, id uuid.UUID) (*sharing.CalendarInfo, error)
	SubCalendarExists(ctx context.Context, calendarID, subCalendarID uuid.UUID) (bool, error)
	// FilterTags keeps only the ids of tags that belong to the calendar,
	// preserving input order.
	FilterTags(ctx context.Context, calendarID uuid.UUID, tagIDs []uuid.UUID) ([]uuid.UUID, error)
}

type Service struct {
	repo       Repository
	resolver   *access.Resolver
	calendars  CalendarSource
	translator translation.Translator
	files      storage.FileStorage
	logger     *slog.Logger
}

func NewService(repo Repository, resolver *access.Resolver, calendars CalendarSource, translator translation.Translator, files storage.FileStorage, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		calendars:  calendars,
		translator: translator,
		files:      files,
		logger:     logger,
	}
}

// permissionFor resolves the caller's effective permission on a calendar,
// optionally narrowed to one sub-calendar. Missing calendars surface as
// not found before any permission is computed.
func (s *Service) permissionFor(ctx context.Context, caller access.Caller, calendarID uuid.UUID, subCalendarID *uuid.UUID) (permission.Permission, error) {
	cal, err := s.calendars.CalendarInfo(ctx, calendarID)
	if err != nil {
		return permission.NoAccess, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return permission.NoAccess, internal.ErrCalendarNotFound
	}

	perm, err := s.resolver.Resolve(ctx, calendarID, caller, subCalendarID)
	if err != nil {
		return permission.NoAccess, internal.NewInternalError("failed to resolve permission", err)
	}
	return perm, nil
}

// canMutate is the shared edit gate: modify covers everything in scope,
// modify_own covers entities the caller authored.
func canMutate(perm permission.Permission, authorID *uuid.UUID, caller access.Caller) bool {
	if permission.CanModify(perm) {
		return true
	}
	if !permission.CanModifyOwn(perm) {
		return false
	}
	return authorID != nil && caller.UserID != nil && *authorID == *caller.UserID
}

// filterTags narrows requested tag ids to the calendar's own tags. Ids
// from other calendars are dropped silently, never rejected.
func (s *Service) filterTags(ctx context.Context, calendarID uuid.UUID, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	kept, err := s.calendars.FilterTags(ctx, calendarID, tagIDs)
	if err != nil {
		return nil, internal.NewInternalError("failed to check tags", err)
	}
	return kept, nil
}

func (s *Service) Create(ctx context.Context, caller access.Caller, calendarID uuid.UUID, dto CreateEventDTO) (*Event, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("event validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	exists, err := s.calendars.SubCalendarExists(ctx, calendarID, dto.SubCalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check sub-calendar", err)
	}
	if !exists {
		return nil, internal.NewNotFoundError("Sub-calendar not found", internal.ErrCodeSubCalendarNotFound)
	}

	perm, err := s.permissionFor(ctx, caller, calendarID, &dto.SubCalendarID)
	if err != nil {
		return nil, err
	}
	if !permission.CanAdd(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	tagIDs, err := s.filterTags(ctx, calendarID, dto.TagIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := &Event{
		ID:            uuid.New(),
		CalendarID:    calendarID,
		SubCalendarID: dto.SubCalendarID,
		AuthorID:      caller.UserID,
		Title:         dto.Title,
		Location:      dto.Location,
		Notes:         dto.Notes,
		Who:           dto.Who,
		StartsAt:      dto.StartsAt,
		EndsAt:        dto.EndsAt,
		AllDay:        dto.AllDay,
		RRule:         dto.RRule,
		Latitude:      dto.Latitude,
		Longitude:     dto.Longitude,
		TagIDs:        tagIDs,
		CustomFields:  dto.CustomFields,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, internal.NewInternalError("failed to create event", err)
	}

	s.logger.Info("event created",
		"event_id", e.ID,
		"calendar_id", calendarID,
		"sub_calendar_id", dto.SubCalendarID)

	return e, nil
}

// eventForRead loads an event and applies the read gates. Callers without
// even limited visibility get not found, never forbidden, so inaccessible
// events stay unenumerable.
func (s *Service) eventForRead(ctx context.Context, caller access.Caller, eventID uuid.UUID) (*Event, permission.Permission, error) {
	e, err := s.repo.EventByID(ctx, eventID)
	if err != nil {
		return nil, permission.NoAccess, internal.NewInternalError("failed to load event", err)
	}
	if e == nil {
		return nil, permission.NoAccess, internal.ErrEventNotFound
	}

	perm, err := s.permissionFor(ctx, caller, e.CalendarID, &e.SubCalendarID)
	if err != nil {
		return nil, permission.NoAccess, err
	}
	if !permission.CanReadLimited(perm) {
		return nil, permission.NoAccess, internal.ErrEventNotFound
	}
	return e, perm, nil
}

func (s *Service) Get(ctx context.Context, caller access.Caller, eventID uuid.UUID) (*Event, error) {
	e, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return e.Masked(), nil
	}
	return e, nil
}

// List returns the calendar's events in the window, filtered and masked
// per sub-calendar: the caller's permission is resolved once per distinct
// sub-calendar appearing in the result.
func (s *Service) List(ctx context.Context, caller access.Caller, calendarID uuid.UUID, window Window) ([]*Event, error) {
	if _, err := s.permissionFor(ctx, caller, calendarID, nil); err != nil {
		return nil, err
	}

	all, err := s.repo.ListEvents(ctx, calendarID, window)
	if err != nil {
		return nil, internal.NewInternalError("failed to list events", err)
	}

	perms := make(map[uuid.UUID]permission.Permission)
	out := make([]*Event, 0, len(all))
	for _, e := range all {
		perm, seen := perms[e.SubCalendarID]
		if !seen {
			subID := e.SubCalendarID
			perm, err = s.resolver.Resolve(ctx, calendarID, caller, &subID)
			if err != nil {
				return nil, internal.NewInternalError("failed to resolve permission", err)
			}
			perms[e.SubCalendarID] = perm
		}

		switch {
		case !permission.CanReadLimited(perm):
			// invisible
		case !permission.CanRead(perm):
			out = append(out, e.Masked())
		default:
			out = append(out, e)
		}
	}

	return out, nil
}

func (s *Service) Update(ctx context.Context, caller access.Caller, eventID uuid.UUID, dto UpdateEventDTO) (*Event, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("event validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	e, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !canMutate(perm, e.AuthorID, caller) {
		return nil, internal.ErrInsufficientAccess
	}

	if dto.SubCalendarID != nil && *dto.SubCalendarID != e.SubCalendarID {
		exists, err := s.calendars.SubCalendarExists(ctx, e.CalendarID, *dto.SubCalendarID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check sub-calendar", err)
		}
		if !exists {
			return nil, internal.NewNotFoundError("Sub-calendar not found", internal.ErrCodeSubCalendarNotFound)
		}

		// moving the event needs the same rights in the target scope
		targetPerm, err := s.permissionFor(ctx, caller, e.CalendarID, dto.SubCalendarID)
		if err != nil {
			return nil, err
		}
		if !canMutate(targetPerm, e.AuthorID, caller) {
			return nil, internal.ErrInsufficientAccess
		}
		e.SubCalendarID = *dto.SubCalendarID
	}

	if dto.Title != nil {
		e.Title = *dto.Title
	}
	if dto.Location != nil {
		e.Location = *dto.Location
	}
	if dto.Notes != nil {
		e.Notes = *dto.Notes
	}
	if dto.Who != nil {
		e.Who = *dto.Who
	}
	if dto.StartsAt != nil {
		e.StartsAt = *dto.StartsAt
	}
	if dto.EndsAt != nil {
		e.EndsAt = *dto.EndsAt
	}
	if dto.AllDay != nil {
		e.AllDay = *dto.AllDay
	}
	if dto.RRule != nil {
		e.RRule = *dto.RRule
	}
	if dto.Latitude != nil {
		e.Latitude = dto.Latitude
	}
	if dto.Longitude != nil {
		e.Longitude = dto.Longitude
	}
	if dto.TagIDs != nil {
		tagIDs, err := s.filterTags(ctx, e.CalendarID, *dto.TagIDs)
		if err != nil {
			return nil, err
		}
		e.TagIDs = tagIDs
	}
	if dto.CustomFields != nil {
		e.CustomFields = dto.CustomFields
	}
	if e.EndsAt.Before(e.StartsAt) {
		return nil, internal.NewValidationError("ends_at must not be before starts_at", internal.ErrCodeValidationFailed)
	}

	// content changed, cached translations are stale
	e.Translations = nil
	e.UpdatedAt = time.Now()

	if err := s.repo.UpdateEvent(ctx, e); err != nil {
		return nil, internal.NewInternalError("failed to update event", err)
	}

	s.logger.Info("event updated", "event_id", e.ID)

	return e, nil
}

func (s *Service) Delete(ctx context.Context, caller access.Caller, eventID uuid.UUID) error {
	e, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return err
	}
	if !canMutate(perm, e.AuthorID, caller) {
		return internal.ErrInsufficientAccess
	}

	attachments, err := s.repo.ListAttachments(ctx, eventID)
	if err != nil {
		return internal.NewInternalError("failed to list attachments", err)
	}

	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return internal.NewInternalError("failed to delete event", err)
	}

	for _, a := range attachments {
		if err := s.files.Delete(ctx, a.StorageKey); err != nil {
			s.logger.Warn("failed to delete attachment file",
				"attachment_id", a.ID,
				"key", a.StorageKey,
				"error", err)
		}
	}

	s.logger.Info("event deleted", "event_id", eventID)

	return nil
}

// Translation holds one language's rendering of an event's text fields.
type Translation struct {
	Language string            `json:"language"`
	Fields   map[string]string `json:"fields"`
	Cached   bool              `json:"cached"`
}

// GetOrTranslate returns the event's text fields in the requested
// language, translating and caching on first request. Translation
// failures degrade to the original text instead of failing the read.
func (s *Service) GetOrTranslate(ctx context.Context, caller access.Caller, eventID uuid.UUID, lang string) (*Translation, error) {
	e, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	cal, err := s.calendars.CalendarInfo(ctx, e.CalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return nil, internal.ErrCalendarNotFound
	}

	original := map[string]string{
		"title":    e.Title,
		"location": e.Location,
		"notes":    e.Notes,
	}

	if lang == "" || lang == cal.Language {
		return &Translation{Language: cal.Language, Fields: original, Cached: false}, nil
	}

	if fields, ok := e.Translations.Get(lang); ok {
		return &Translation{Language: lang, Fields: fields, Cached: true}, nil
	}

	translated := make(map[string]string, len(translatedFields))
	for _, field := range translatedFields {
		text := original[field]
		out, err := s.translator.Translate(ctx, text, cal.Language, lang)
		if err != nil {
			s.logger.Warn("translation failed, returning original text",
				"event_id", eventID,
				"field", field,
				"target_lang", lang,
				"error", err)
			out = text
		}
		translated[field] = out
	}

	if e.Translations == nil {
		e.Translations = TranslationMap{}
	}
	e.Translations[lang] = translated

	if err := s.repo.SaveEventTranslations(ctx, eventID, e.Translations); err != nil {
		s.logger.Warn("failed to cache translation", "event_id", eventID, "error", err)
	}

	return &Translation{Language: lang, Fields: translated, Cached: false}, nil
}

// GetOrTranslateComment is the comment counterpart of GetOrTranslate: one
// translatable field, the same per-language cache on the comment row, the
// same degrade-to-original behavior.
func (s *Service) GetOrTranslateComment(ctx context.Context, caller access.Caller, commentID uuid.UUID, lang string) (*Translation, error) {
	c, err := s.repo.CommentByID(ctx, commentID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load comment", err)
	}
	if c == nil {
		return nil, internal.ErrCommentNotFound
	}

	e, perm, err := s.eventForRead(ctx, caller, c.EventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	cal, err := s.calendars.CalendarInfo(ctx, e.CalendarID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load calendar", err)
	}
	if cal == nil {
		return nil, internal.ErrCalendarNotFound
	}

	if lang == "" || lang == cal.Language {
		return &Translation{Language: cal.Language, Fields: map[string]string{"body": c.Body}, Cached: false}, nil
	}

	if fields, ok := c.Translations.Get(lang); ok {
		return &Translation{Language: lang, Fields: fields, Cached: true}, nil
	}

	out, err := s.translator.Translate(ctx, c.Body, cal.Language, lang)
	if err != nil {
		s.logger.Warn("translation failed, returning original text",
			"comment_id", commentID,
			"target_lang", lang,
			"error", err)
		out = c.Body
	}

	if c.Translations == nil {
		c.Translations = TranslationMap{}
	}
	c.Translations[lang] = map[string]string{"body": out}

	if err := s.repo.SaveCommentTranslations(ctx, commentID, c.Translations); err != nil {
		s.logger.Warn("failed to cache translation", "comment_id", commentID, "error", err)
	}

	return &Translation{Language: lang, Fields: map[string]string{"body": out}, Cached: false}, nil
}

func (s *Service) ListSignups(ctx context.Context, caller access.Caller, eventID uuid.UUID) ([]*Signup, error) {
	_, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	signups, err := s.repo.ListSignups(ctx, eventID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list signups", err)
	}
	return signups, nil
}

func (s *Service) CreateSignup(ctx context.Context, caller access.Caller, eventID uuid.UUID, dto CreateSignupDTO) (*Signup, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	_, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanAdd(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	sg := &Signup{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    caller.UserID,
		Name:      dto.Name,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSignup(ctx, sg); err != nil {
		return nil, internal.NewInternalError("failed to create signup", err)
	}
	return sg, nil
}

// DeleteSignup allows modify-level callers to remove any signup and lets
// everyone who can sign up withdraw their own.
func (s *Service) DeleteSignup(ctx context.Context, caller access.Caller, signupID uuid.UUID) error {
	sg, err := s.repo.SignupByID(ctx, signupID)
	if err != nil {
		return internal.NewInternalError("failed to load signup", err)
	}
	if sg == nil {
		return internal.ErrSignupNotFound
	}

	_, perm, err := s.eventForRead(ctx, caller, sg.EventID)
	if err != nil {
		return err
	}

	own := sg.UserID != nil && caller.UserID != nil && *sg.UserID == *caller.UserID
	if !permission.CanModify(perm) && !(own && permission.CanAdd(perm)) {
		return internal.ErrInsufficientAccess
	}

	if err := s.repo.DeleteSignup(ctx, signupID); err != nil {
		return internal.NewInternalError("failed to delete signup", err)
	}
	return nil
}

func (s *Service) ListComments(ctx context.Context, caller access.Caller, eventID uuid.UUID) ([]*Comment, error) {
	_, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	comments, err := s.repo.ListComments(ctx, eventID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list comments", err)
	}
	return comments, nil
}

// CreateComment requires an authenticated reader. Anonymous link-holders
// cannot comment, comments always carry an author.
func (s *Service) CreateComment(ctx context.Context, caller access.Caller, eventID uuid.UUID, dto CreateCommentDTO) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}
	if caller.UserID == nil {
		return nil, internal.ErrNotAuthenticated
	}

	_, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	c := &Comment{
		ID:        uuid.New(),
		EventID:   eventID,
		AuthorID:  caller.UserID,
		Body:      dto.Body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, internal.NewInternalError("failed to create comment", err)
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, caller access.Caller, commentID uuid.UUID) error {
	c, err := s.repo.CommentByID(ctx, commentID)
	if err != nil {
		return internal.NewInternalError("failed to load comment", err)
	}
	if c == nil {
		return internal.ErrCommentNotFound
	}

	_, perm, err := s.eventForRead(ctx, caller, c.EventID)
	if err != nil {
		return err
	}

	own := c.AuthorID != nil && caller.UserID != nil && *c.AuthorID == *caller.UserID
	if !permission.CanModify(perm) && !own {
		return internal.ErrInsufficientAccess
	}

	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return internal.NewInternalError("failed to delete comment", err)
	}
	return nil
}

func (s *Service) ListAttachments(ctx context.Context, caller access.Caller, eventID uuid.UUID) ([]*Attachment, error) {
	_, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !permission.CanRead(perm) {
		return nil, internal.ErrInsufficientAccess
	}

	attachments, err := s.repo.ListAttachments(ctx, eventID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list attachments", err)
	}
	return attachments, nil
}

// UploadAttachment stores the file and records it on the event. Attaching
// is an edit of the event, so the event edit gate applies.
func (s *Service) UploadAttachment(ctx context.Context, caller access.Caller, eventID uuid.UUID, fileName, contentType string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, internal.NewValidationError("file is empty", internal.ErrCodeValidationFailed)
	}

	e, perm, err := s.eventForRead(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if !canMutate(perm, e.AuthorID, caller) {
		return nil, internal.ErrInsufficientAccess
	}

	id := uuid.New()
	key := fmt.Sprintf("events/%s/%s-%s", eventID, id, sanitizeFileName(fileName))

	url, err := s.files.Save(ctx, key, data)
	if err != nil {
		return nil, internal.NewInternalError("failed to store attachment", err)
	}

	a := &Attachment{
		ID:          id,
		EventID:     eventID,
		UploadedBy:  caller.UserID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		StorageKey:  key,
		URL:         url,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateAttachment(ctx, a); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned file", "key", key, "error", delErr)
		}
		return nil, internal.NewInternalError("failed to record attachment", err)
	}

	s.logger.Info("attachment uploaded", "attachment_id", a.ID, "event_id", eventID, "size", a.Size)

	return a, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, caller access.Caller, attachmentID uuid.UUID) error {
	a, err := s.repo.AttachmentByID(ctx, attachmentID)
	if err != nil {
		return internal.NewInternalError("failed to load attachment", err)
	}
	if a == nil {
		return internal.ErrAttachmentNotFound
	}

	e, perm, err := s.eventForRead(ctx, caller, a.EventID)
	if err != nil {
		return err
	}
	if !canMutate(perm, e.AuthorID, caller) {
		return internal.ErrInsufficientAccess
	}

	if err := s.repo.DeleteAttachment(ctx, attachmentID); err != nil {
		return internal.NewInternalError("failed to delete attachment", err)
	}

	if err := s.files.Delete(ctx, a.StorageKey); err != nil {
		s.logger.Warn("failed to delete attachment file", "key", a.StorageKey, "error", err)
	}

	return nil
}

// DeleteForCalendar is the calendar cascade hook. Stored files are left
// to be swept separately, the rows go atomically.
func (s *Service) DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error {
	if err := s.repo.DeleteForCalendar(ctx, calendarID); err != nil {
		return internal.NewInternalError("failed to delete calendar events", err)
	}
	s.logger.Info("calendar events deleted", "calendar_id", calendarID)
	return nil
}

// NullifyAuthorship is the account deletion hook.
func (s *Service) NullifyAuthorship(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.NullifyAuthorship(ctx, userID); err != nil {
		return internal.NewInternalError("failed to detach authored content", err)
	}
	return nil
}

func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
