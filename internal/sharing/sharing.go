package sharing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// PendingInvitation is an invitation addressed to an email with no account
// yet. Registration under that email converts it into a real grant.
type PendingInvitation struct {
	ID            uuid.UUID             `json:"id"`
	CalendarID    uuid.UUID             `json:"calendar_id"`
	Email         string                `json:"email"`
	Permission    permission.Permission `json:"permission"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
	InvitedBy     uuid.UUID             `json:"invited_by"`
	EmailSent     bool                  `json:"email_sent"`
	CreatedAt     time.Time             `json:"created_at"`
}

// PendingRepository stores pending invitations. ApplyPending runs the whole
// conversion for one email in a single transaction.
type PendingRepository interface {
	Create(ctx context.Context, inv *PendingInvitation) error
	ByID(ctx context.Context, id uuid.UUID) (*PendingInvitation, error)
	Find(ctx context.Context, calendarID uuid.UUID, email string) (*PendingInvitation, error)
	ListForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*PendingInvitation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, email string) error
	MarkEmailSent(ctx context.Context, id uuid.UUID) error

	ApplyPending(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

// CalendarInfo is the slice of a calendar the sharing operations need.
type CalendarInfo struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	Title              string
	Language           string
	EmailNotifications bool
}

// CalendarReader looks up calendar metadata; nil means the calendar does not
// exist.
type CalendarReader interface {
	CalendarInfo(ctx context.Context, id uuid.UUID) (*CalendarInfo, error)
	SubCalendarExists(ctx context.Context, calendarID, subCalendarID uuid.UUID) (bool, error)
}
