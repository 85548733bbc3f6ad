package sharing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal/group"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// CreateLinkDTO represents the request payload for creating an access link
type CreateLinkDTO struct {
	Label         string                `json:"label"`
	Permission    permission.Permission `json:"permission" validate:"required"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
}

// Validate validates the CreateLinkDTO
func (dto CreateLinkDTO) Validate() error {
	if dto.Permission == "" {
		return errors.New("permission is required")
	}
	return nil
}

// UpdateLinkDTO carries partial link updates. ClearGroup unbinds the group
// regardless of GroupID.
type UpdateLinkDTO struct {
	Label      *string                `json:"label,omitempty"`
	Active     *bool                  `json:"active,omitempty"`
	Permission *permission.Permission `json:"permission,omitempty"`
	GroupID    *uuid.UUID             `json:"group_id,omitempty"`
	ClearGroup bool                   `json:"clear_group,omitempty"`
}

// CreateAccessDTO represents the request payload for a direct grant
type CreateAccessDTO struct {
	UserID        *uuid.UUID            `json:"user_id,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
	Permission    permission.Permission `json:"permission" validate:"required"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
}

// Validate validates the CreateAccessDTO
func (dto CreateAccessDTO) Validate() error {
	if dto.Permission == "" {
		return errors.New("permission is required")
	}
	if (dto.UserID == nil) == (dto.GroupID == nil) {
		return errors.New("exactly one of user_id or group_id is required")
	}
	return nil
}

// InviteDTO represents the request payload for inviting an email address
type InviteDTO struct {
	Email         string                `json:"email" validate:"required,email"`
	Name          string                `json:"name,omitempty"`
	Permission    permission.Permission `json:"permission" validate:"required"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
}

// Validate validates the InviteDTO
func (dto InviteDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if dto.Permission == "" {
		return errors.New("permission is required")
	}
	return nil
}

// InviteResult reports what an invitation produced. EmailSent reflects the
// attempt, not delivery.
type InviteResult struct {
	Email        string                `json:"email"`
	Permission   permission.Permission `json:"permission"`
	UserExists   bool                  `json:"user_exists"`
	GrantID      *uuid.UUID            `json:"grant_id,omitempty"`
	InvitationID *uuid.UUID            `json:"invitation_id,omitempty"`
	EmailSent    bool                  `json:"email_sent"`
}

// LinkOut is the API view of an access link with its grant.
type LinkOut struct {
	ID            uuid.UUID             `json:"id"`
	CalendarID    uuid.UUID             `json:"calendar_id"`
	Token         string                `json:"token"`
	Label         string                `json:"label"`
	Active        bool                  `json:"active"`
	Permission    permission.Permission `json:"permission"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
	GroupName     string                `json:"group_name,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// GrantOut is the API view of a non-link grant with display data.
type GrantOut struct {
	ID            uuid.UUID             `json:"id"`
	CalendarID    uuid.UUID             `json:"calendar_id"`
	SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	Permission    permission.Permission `json:"permission"`
	UserID        *uuid.UUID            `json:"user_id,omitempty"`
	UserEmail     string                `json:"user_email,omitempty"`
	UserName      string                `json:"user_name,omitempty"`
	GroupID       *uuid.UUID            `json:"group_id,omitempty"`
	GroupName     string                `json:"group_name,omitempty"`
}

// GroupOut is the API view of a group with its members.
type GroupOut struct {
	group.Group
	Members []*group.Member `json:"members"`
}
