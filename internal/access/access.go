package access

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// GranteeKind discriminates the three possible holders of a grant.
type GranteeKind string

const (
	GranteeUser  GranteeKind = "user"
	GranteeGroup GranteeKind = "group"
	GranteeLink  GranteeKind = "link"
)

// Grantee is a tagged variant: exactly one kind, exactly one ID. The storage
// layer keeps three nullable columns and converts through this type so the
// exactly-one rule is enforced in one place.
type Grantee struct {
	Kind GranteeKind
	ID   uuid.UUID
}

func UserGrantee(id uuid.UUID) Grantee  { return Grantee{Kind: GranteeUser, ID: id} }
func GroupGrantee(id uuid.UUID) Grantee { return Grantee{Kind: GranteeGroup, ID: id} }
func LinkGrantee(id uuid.UUID) Grantee  { return Grantee{Kind: GranteeLink, ID: id} }

// Grant binds a grantee to a permission on a calendar, optionally narrowed
// to a single sub-calendar. A nil SubCalendarID means calendar-wide.
type Grant struct {
	ID            uuid.UUID
	CalendarID    uuid.UUID
	SubCalendarID *uuid.UUID
	Grantee       Grantee
	Permission    permission.Permission
}

// Link is a tokenized sharing entry point. A link is not itself a
// permission; it always has exactly one Grant row carrying what it grants.
type Link struct {
	ID         uuid.UUID
	CalendarID uuid.UUID
	Token      string
	Label      string
	Active     bool
	GroupID    *uuid.UUID
	CreatedAt  time.Time
}

// Caller identifies who is asking. Both fields may be set at once: an
// authenticated user following a shared link combines both grant sources.
type Caller struct {
	UserID    *uuid.UUID
	LinkToken string
}

// Anonymous builds a caller holding only a link token.
func Anonymous(linkToken string) Caller {
	return Caller{LinkToken: linkToken}
}

// ForUser builds a caller for an authenticated user.
func ForUser(userID uuid.UUID) Caller {
	return Caller{UserID: &userID}
}

// Reader is what the resolver needs from storage. All methods are pure reads.
type Reader interface {
	// CalendarOwnerID returns the owner of the calendar. Callers of the
	// resolver are responsible for calendar existence checks beforehand.
	CalendarOwnerID(ctx context.Context, calendarID uuid.UUID) (uuid.UUID, error)

	// UserPermissions returns permissions from direct grants and from grants
	// held by groups the user belongs to, already filtered by scope
	// (calendar-wide rows plus rows matching subCalendarID).
	UserPermissions(ctx context.Context, calendarID, userID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error)

	// ActiveLinkByToken returns the active link with this token on this
	// calendar, or nil when no such link exists. Inactive links are nil.
	ActiveLinkByToken(ctx context.Context, calendarID uuid.UUID, token string) (*Link, error)

	// LinkPermissions returns the permissions of the link's grant rows,
	// filtered by scope like UserPermissions.
	LinkPermissions(ctx context.Context, linkID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error)
}

// Store extends Reader with the mutations the sharing surface performs on
// grants and links.
type Store interface {
	Reader

	CreateGrant(ctx context.Context, grant *Grant) error
	GrantByID(ctx context.Context, id uuid.UUID) (*Grant, error)
	ListGrants(ctx context.Context, calendarID uuid.UUID, excludeLinks bool) ([]*Grant, error)
	ListGrantsForGrantee(ctx context.Context, calendarID uuid.UUID, grantee Grantee) ([]*Grant, error)
	FindGrant(ctx context.Context, calendarID uuid.UUID, grantee Grantee, subCalendarID *uuid.UUID) (*Grant, error)
	UpdateGrantPermission(ctx context.Context, id uuid.UUID, p permission.Permission) error
	DeleteGrant(ctx context.Context, id uuid.UUID) error
	DeleteGrantsForGrantee(ctx context.Context, grantee Grantee) error

	CreateLink(ctx context.Context, link *Link) error
	LinkByID(ctx context.Context, id uuid.UUID) (*Link, error)
	ListLinks(ctx context.Context, calendarID uuid.UUID) ([]*Link, error)
	UpdateLink(ctx context.Context, link *Link) error
	DeleteLink(ctx context.Context, id uuid.UUID) error
}
