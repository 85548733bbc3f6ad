package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserRegistered    = "user.registered"
	EventTypeInvitationCreated = "invitation.created"
	EventTypePasswordResetSent = "password.reset_requested"
)

type UserRegisteredEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func NewUserRegisteredEvent(userID, email, name string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
				"name":    name,
			},
		},
		UserID: userID,
		Email:  email,
		Name:   name,
	}
}

type InvitationCreatedEvent struct {
	BaseEvent
	CalendarID     string `json:"calendar_id"`
	CalendarTitle  string `json:"calendar_title"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	InviterName    string `json:"inviter_name"`
	Permission     string `json:"permission"`
	Language       string `json:"language"`
	UserExists     bool   `json:"user_exists"`
}

func NewInvitationCreatedEvent(calendarID, calendarTitle, recipientEmail, recipientName, inviterName, permission, language string, userExists bool) *InvitationCreatedEvent {
	return &InvitationCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeInvitationCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"calendar_id":     calendarID,
				"calendar_title":  calendarTitle,
				"recipient_email": recipientEmail,
				"recipient_name":  recipientName,
				"inviter_name":    inviterName,
				"permission":      permission,
				"language":        language,
				"user_exists":     userExists,
			},
		},
		CalendarID:     calendarID,
		CalendarTitle:  calendarTitle,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		InviterName:    inviterName,
		Permission:     permission,
		Language:       language,
		UserExists:     userExists,
	}
}

type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

func NewPasswordResetRequestedEvent(userID, email, name, token string) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePasswordResetSent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
				"name":    name,
				"token":   token,
			},
		},
		UserID: userID,
		Email:  email,
		Name:   name,
		Token:  token,
	}
}
