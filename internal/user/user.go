package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the account record. Ban state is a tri-state: not banned,
// temporarily banned (BanUntil set) or permanently banned (BanUntil nil
// while IsBanned is true).
type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PasswordHash      string     `json:"-"`
	IsVerified        bool       `json:"is_verified"`
	IsAdmin           bool       `json:"is_admin"`
	IsBanned          bool       `json:"is_banned"`
	BanUntil          *time.Time `json:"ban_until,omitempty"`
	BanReason         *string    `json:"ban_reason,omitempty"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// PermanentlyBanned reports whether the ban has no expiry.
func (u *User) PermanentlyBanned() bool {
	return u.IsBanned && u.BanUntil == nil
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id uuid.UUID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)

	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	SetVerified(ctx context.Context, id uuid.UUID) error
	SetBan(ctx context.Context, id uuid.UUID, until *time.Time, reason *string) error
	LiftBan(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
