package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/calendar-sharing/internal/user"
)

// UserModel is the users row.
type UserModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string    `gorm:"size:255;uniqueIndex;not null"`
	Name              string    `gorm:"size:255;not null"`
	PasswordHash      string    `gorm:"size:255;not null"`
	IsVerified        bool      `gorm:"not null;default:false"`
	IsAdmin           bool      `gorm:"not null;default:false"`
	IsBanned          bool      `gorm:"not null;default:false"`
	BanUntil          *time.Time
	BanReason         *string `gorm:"size:500"`
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
}

func (UserModel) TableName() string { return "users" }

// UserRepository implements user.Repository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func toDomain(m *UserModel) *user.User {
	return &user.User{
		ID:                m.ID,
		Email:             m.Email,
		Name:              m.Name,
		PasswordHash:      m.PasswordHash,
		IsVerified:        m.IsVerified,
		IsAdmin:           m.IsAdmin,
		IsBanned:          m.IsBanned,
		BanUntil:          m.BanUntil,
		BanReason:         m.BanReason,
		PasswordChangedAt: m.PasswordChangedAt,
		CreatedAt:         m.CreatedAt,
	}
}

func toModel(u *user.User) *UserModel {
	return &UserModel{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		PasswordHash:      u.PasswordHash,
		IsVerified:        u.IsVerified,
		IsAdmin:           u.IsAdmin,
		IsBanned:          u.IsBanned,
		BanUntil:          u.BanUntil,
		BanReason:         u.BanReason,
		PasswordChangedAt: u.PasswordChangedAt,
		CreatedAt:         u.CreatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(toModel(u)).Error
}

func (r *UserRepository) ByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	var m UserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	var models []*UserModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	users := make([]*user.User, 0, len(models))
	for _, m := range models {
		users = append(users, toDomain(m))
	}
	return users, nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Update("is_admin", isAdmin).Error
}

func (r *UserRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

func (r *UserRepository) SetBan(ctx context.Context, id uuid.UUID, until *time.Time, reason *string) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_banned":  true,
			"ban_until":  until,
			"ban_reason": reason,
		}).Error
}

func (r *UserRepository) LiftBan(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_banned":  false,
			"ban_until":  nil,
			"ban_reason": nil,
		}).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":       hash,
			"password_changed_at": changedAt,
		}).Error
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserModel{}).Error
}
