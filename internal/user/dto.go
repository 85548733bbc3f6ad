package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RegisterDTO represents the request payload for creating an account
type RegisterDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// Validate validates the RegisterDTO
func (dto RegisterDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if !ValidEmail(dto.Email) {
		return errors.New("email is invalid")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Name) > 100 {
		return errors.New("name must be less than 100 characters")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type BanDTO struct {
	Permanent bool       `json:"permanent"`
	Until     *time.Time `json:"until,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

// UserOut is the API view of a user.
type UserOut struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	IsVerified   bool       `json:"is_verified"`
	IsAdmin      bool       `json:"is_admin"`
	IsSuperadmin bool       `json:"is_superadmin"`
	IsBanned     bool       `json:"is_banned"`
	BanUntil     *time.Time `json:"ban_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToOut builds the API view; superadmin status is decided by the caller
// against startup configuration.
func (u *User) ToOut(isSuperadmin bool) UserOut {
	return UserOut{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsVerified:   u.IsVerified,
		IsAdmin:      u.IsAdmin,
		IsSuperadmin: isSuperadmin,
		IsBanned:     u.IsBanned,
		BanUntil:     u.BanUntil,
		CreatedAt:    u.CreatedAt,
	}
}
