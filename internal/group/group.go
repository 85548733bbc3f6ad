package group

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Group belongs to one calendar and carries a member set. Grants may target
// the group as a whole; members inherit them through the access resolver.
type Group struct {
	ID         uuid.UUID `json:"id"`
	CalendarID uuid.UUID `json:"calendar_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Member is the display view of a group member.
type Member struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Membership pairs a user with the groups they belong to on one calendar.
type Membership struct {
	UserID uuid.UUID `json:"user_id"`
	Groups []Group   `json:"groups"`
}

type Repository interface {
	Create(ctx context.Context, g *Group) error
	ByID(ctx context.Context, id uuid.UUID) (*Group, error)
	ForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*Group, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	Members(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	MembershipsForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*Membership, error)
	RemoveUserFromAllGroups(ctx context.Context, userID uuid.UUID) error
}
