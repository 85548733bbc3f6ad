package event

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateEventDTO struct {
	SubCalendarID uuid.UUID         `json:"sub_calendar_id"`
	Title         string            `json:"title"`
	Location      string            `json:"location"`
	Notes         string            `json:"notes"`
	Who           string            `json:"who"`
	StartsAt      time.Time         `json:"starts_at"`
	EndsAt        time.Time         `json:"ends_at"`
	AllDay        bool              `json:"all_day"`
	RRule         string            `json:"rrule"`
	Latitude      *float64          `json:"latitude"`
	Longitude     *float64          `json:"longitude"`
	TagIDs        []uuid.UUID       `json:"tag_ids"`
	CustomFields  map[string]string `json:"custom_fields"`
}

func (d *CreateEventDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)

	if d.SubCalendarID == uuid.Nil {
		return errors.New("sub_calendar_id is required")
	}
	if d.Title == "" {
		return errors.New("title is required")
	}
	if len(d.Title) > 255 {
		return errors.New("title must be at most 255 characters")
	}
	if d.StartsAt.IsZero() || d.EndsAt.IsZero() {
		return errors.New("starts_at and ends_at are required")
	}
	if d.EndsAt.Before(d.StartsAt) {
		return errors.New("ends_at must not be before starts_at")
	}
	return validateCoordinates(d.Latitude, d.Longitude)
}

func validateCoordinates(lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return errors.New("latitude must be between -90 and 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

type UpdateEventDTO struct {
	SubCalendarID *uuid.UUID        `json:"sub_calendar_id"`
	Title         *string           `json:"title"`
	Location      *string           `json:"location"`
	Notes         *string           `json:"notes"`
	Who           *string           `json:"who"`
	StartsAt      *time.Time        `json:"starts_at"`
	EndsAt        *time.Time        `json:"ends_at"`
	AllDay        *bool             `json:"all_day"`
	RRule         *string           `json:"rrule"`
	Latitude      *float64          `json:"latitude"`
	Longitude     *float64          `json:"longitude"`
	TagIDs        *[]uuid.UUID      `json:"tag_ids"`
	CustomFields  map[string]string `json:"custom_fields"`
}

func (d *UpdateEventDTO) Validate() error {
	if d.Title != nil {
		trimmed := strings.TrimSpace(*d.Title)
		if trimmed == "" {
			return errors.New("title must not be empty")
		}
		if len(trimmed) > 255 {
			return errors.New("title must be at most 255 characters")
		}
		d.Title = &trimmed
	}
	if d.SubCalendarID != nil && *d.SubCalendarID == uuid.Nil {
		return errors.New("sub_calendar_id must not be empty")
	}
	if d.StartsAt != nil && d.EndsAt != nil && d.EndsAt.Before(*d.StartsAt) {
		return errors.New("ends_at must not be before starts_at")
	}
	return validateCoordinates(d.Latitude, d.Longitude)
}

type CreateSignupDTO struct {
	Name string `json:"name"`
}

func (d *CreateSignupDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errors.New("name is required")
	}
	if len(d.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	return nil
}

type CreateCommentDTO struct {
	Body string `json:"body"`
}

func (d *CreateCommentDTO) Validate() error {
	d.Body = strings.TrimSpace(d.Body)
	if d.Body == "" {
		return errors.New("body is required")
	}
	if len(d.Body) > 4000 {
		return errors.New("body must be at most 4000 characters")
	}
	return nil
}
