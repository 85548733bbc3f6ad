package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BusyPlaceholderTitle replaces the real title when a caller may only see
// that a slot is taken.
const BusyPlaceholderTitle = "Busy"

// TranslationMap caches translated fields per language code. The zero
// value is usable.
type TranslationMap map[string]map[string]string

func (t TranslationMap) Get(lang string) (map[string]string, bool) {
	if t == nil {
		return nil, false
	}
	fields, ok := t[lang]
	return fields, ok
}

// Event is one entry on a calendar. SubCalendarID is always set; every
// event lives in exactly one sub-calendar. AuthorID goes nil when the
// authoring account is deleted.
type Event struct {
	ID            uuid.UUID         `json:"id"`
	CalendarID    uuid.UUID         `json:"calendar_id"`
	SubCalendarID uuid.UUID         `json:"sub_calendar_id"`
	AuthorID      *uuid.UUID        `json:"author_id,omitempty"`
	Title         string            `json:"title"`
	Location      string            `json:"location,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Who           string            `json:"who,omitempty"`
	StartsAt      time.Time         `json:"starts_at"`
	EndsAt        time.Time         `json:"ends_at"`
	AllDay        bool              `json:"all_day"`
	RRule         string            `json:"rrule,omitempty"`
	Latitude      *float64          `json:"latitude,omitempty"`
	Longitude     *float64          `json:"longitude,omitempty"`
	TagIDs        []uuid.UUID       `json:"tag_ids,omitempty"`
	CustomFields  map[string]string `json:"custom_fields,omitempty"`
	Translations  TranslationMap    `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Masked returns a copy showing only that the slot is occupied. Times and
// the sub-calendar stay visible, everything else is stripped.
func (e *Event) Masked() *Event {
	return &Event{
		ID:            e.ID,
		CalendarID:    e.CalendarID,
		SubCalendarID: e.SubCalendarID,
		Title:         BusyPlaceholderTitle,
		StartsAt:      e.StartsAt,
		EndsAt:        e.EndsAt,
		AllDay:        e.AllDay,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// Signup records attendance on an event. UserID is set for registered
// users and nil for name-only signups.
type Signup struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

type Comment struct {
	ID           uuid.UUID      `json:"id"`
	EventID      uuid.UUID      `json:"event_id"`
	AuthorID     *uuid.UUID     `json:"author_id,omitempty"`
	Body         string         `json:"body"`
	Translations TranslationMap `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Attachment struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	StorageKey  string     `json:"-"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Window bounds a range query. Either side may be nil for an open end.
type Window struct {
	From *time.Time
	To   *time.Time
}

type Repository interface {
	CreateEvent(ctx context.Context, e *Event) error
	EventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, calendarID uuid.UUID, window Window) ([]*Event, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	SaveEventTranslations(ctx context.Context, id uuid.UUID, t TranslationMap) error

	CreateSignup(ctx context.Context, s *Signup) error
	SignupByID(ctx context.Context, id uuid.UUID) (*Signup, error)
	ListSignups(ctx context.Context, eventID uuid.UUID) ([]*Signup, error)
	DeleteSignup(ctx context.Context, id uuid.UUID) error

	CreateComment(ctx context.Context, c *Comment) error
	CommentByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, eventID uuid.UUID) ([]*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
	SaveCommentTranslations(ctx context.Context, id uuid.UUID, t TranslationMap) error

	CreateAttachment(ctx context.Context, a *Attachment) error
	AttachmentByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	ListAttachments(ctx context.Context, eventID uuid.UUID) ([]*Attachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error

	// DeleteForCalendar removes every event of the calendar together with
	// its signups, comments and attachments.
	DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error

	// NullifyAuthorship clears the author reference on events and comments
	// and the uploader reference on attachments.
	NullifyAuthorship(ctx context.Context, userID uuid.UUID) error
}
