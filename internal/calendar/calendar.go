package calendar

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Calendar is the top-level shared resource. The owner is implicit
// ADMINISTRATOR and never appears in the access table.
type Calendar struct {
	ID                 uuid.UUID `json:"id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	Slug               string    `json:"slug"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Timezone           string    `json:"timezone"`
	Language           string    `json:"language"`
	WeekStartsMonday   bool      `json:"week_starts_monday"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"`
}

// SubCalendar partitions a calendar; grants may be scoped to one.
type SubCalendar struct {
	ID         uuid.UUID `json:"id"`
	CalendarID uuid.UUID `json:"calendar_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	Active     bool      `json:"active"`
	Position   int       `json:"position"`
}

// Tag labels events within one calendar.
type Tag struct {
	ID         uuid.UUID `json:"id"`
	CalendarID uuid.UUID `json:"calendar_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
}

type Repository interface {
	Create(ctx context.Context, c *Calendar) error
	ByID(ctx context.Context, id uuid.UUID) (*Calendar, error)
	BySlug(ctx context.Context, slug string) (*Calendar, error)
	ForOwner(ctx context.Context, ownerID uuid.UUID) ([]*Calendar, error)
	Update(ctx context.Context, c *Calendar) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSubCalendar(ctx context.Context, sc *SubCalendar) error
	SubCalendarByID(ctx context.Context, id uuid.UUID) (*SubCalendar, error)
	SubCalendars(ctx context.Context, calendarID uuid.UUID) ([]*SubCalendar, error)
	UpdateSubCalendar(ctx context.Context, sc *SubCalendar) error
	DeleteSubCalendar(ctx context.Context, id uuid.UUID) error
	DeleteSubCalendars(ctx context.Context, calendarID uuid.UUID) error

	CreateTag(ctx context.Context, t *Tag) error
	TagByID(ctx context.Context, id uuid.UUID) (*Tag, error)
	Tags(ctx context.Context, calendarID uuid.UUID) ([]*Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
	DeleteTags(ctx context.Context, calendarID uuid.UUID) error
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ValidSlug reports whether the slug is url-safe: lowercase alphanumerics
// and hyphens, not starting with a hyphen.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Slugify derives a usable slug from a title.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
