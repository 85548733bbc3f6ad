package calendar

import "errors"

// CreateCalendarDTO represents the request payload for creating a calendar
type CreateCalendarDTO struct {
	Title              string `json:"title" validate:"required,min=1,max=255"`
	Slug               string `json:"slug,omitempty"`
	Description        string `json:"description,omitempty"`
	Timezone           string `json:"timezone,omitempty"`
	Language           string `json:"language,omitempty"`
	WeekStartsMonday   bool   `json:"week_starts_monday"`
	EmailNotifications bool   `json:"email_notifications"`
}

// Validate validates the CreateCalendarDTO
func (dto CreateCalendarDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if len(dto.Title) > 255 {
		return errors.New("title must be less than 255 characters")
	}
	return nil
}

// UpdateCalendarDTO carries partial calendar updates.
type UpdateCalendarDTO struct {
	Title              *string `json:"title,omitempty"`
	Slug               *string `json:"slug,omitempty"`
	Description        *string `json:"description,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	Language           *string `json:"language,omitempty"`
	WeekStartsMonday   *bool   `json:"week_starts_monday,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
}

// SubCalendarDTO represents the request payload for sub-calendar writes
type SubCalendarDTO struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Active   *bool  `json:"active,omitempty"`
	Position int    `json:"position"`
}
