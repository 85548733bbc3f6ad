package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	accesspg "github.com/frahmantamala/calendar-sharing/internal/access/postgres"
	grouppg "github.com/frahmantamala/calendar-sharing/internal/group/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/sharing"
)

// PendingInvitationModel is the pending_invitations row.
type PendingInvitationModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CalendarID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Email         string     `gorm:"size:255;not null;index"`
	Permission    string     `gorm:"not null"`
	SubCalendarID *uuid.UUID `gorm:"type:uuid"`
	GroupID       *uuid.UUID `gorm:"type:uuid"`
	InvitedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	EmailSent     bool       `gorm:"not null;default:false"`
	CreatedAt     time.Time
}

func (PendingInvitationModel) TableName() string { return "pending_invitations" }

// PendingRepository implements sharing.PendingRepository using GORM.
type PendingRepository struct {
	db *gorm.DB
}

func NewPendingRepository(db *gorm.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

func toDomain(m *PendingInvitationModel) *sharing.PendingInvitation {
	return &sharing.PendingInvitation{
		ID:            m.ID,
		CalendarID:    m.CalendarID,
		Email:         m.Email,
		Permission:    permission.Permission(m.Permission),
		SubCalendarID: m.SubCalendarID,
		GroupID:       m.GroupID,
		InvitedBy:     m.InvitedBy,
		EmailSent:     m.EmailSent,
		CreatedAt:     m.CreatedAt,
	}
}

func toModel(inv *sharing.PendingInvitation) *PendingInvitationModel {
	return &PendingInvitationModel{
		ID:            inv.ID,
		CalendarID:    inv.CalendarID,
		Email:         inv.Email,
		Permission:    string(inv.Permission),
		SubCalendarID: inv.SubCalendarID,
		GroupID:       inv.GroupID,
		InvitedBy:     inv.InvitedBy,
		EmailSent:     inv.EmailSent,
		CreatedAt:     inv.CreatedAt,
	}
}

func (r *PendingRepository) Create(ctx context.Context, inv *sharing.PendingInvitation) error {
	return r.db.WithContext(ctx).Create(toModel(inv)).Error
}

func (r *PendingRepository) ByID(ctx context.Context, id uuid.UUID) (*sharing.PendingInvitation, error) {
	var m PendingInvitationModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *PendingRepository) Find(ctx context.Context, calendarID uuid.UUID, email string) (*sharing.PendingInvitation, error) {
	var m PendingInvitationModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ? AND email = ?", calendarID, email).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *PendingRepository) ListForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*sharing.PendingInvitation, error) {
	var models []*PendingInvitationModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*sharing.PendingInvitation, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *PendingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&PendingInvitationModel{}).Error
}

func (r *PendingRepository) DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Delete(&PendingInvitationModel{}).Error
}

func (r *PendingRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, email string) error {
	return r.db.WithContext(ctx).
		Where("invited_by = ? OR email = ?", userID, email).
		Delete(&PendingInvitationModel{}).Error
}

func (r *PendingRepository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&PendingInvitationModel{}).
		Where("id = ?", id).
		Update("email_sent", true).Error
}

// ApplyPending converts every invitation addressed to the email into a grant
// and deletes it, in one transaction. A grant that already exists for the
// same (calendar, user, scope) is left alone; the invitation is consumed
// either way. Bound groups are joined idempotently.
func (r *PendingRepository) ApplyPending(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	applied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitations []*PendingInvitationModel
		if err := tx.Where("email = ?", email).Find(&invitations).Error; err != nil {
			return err
		}

		for _, inv := range invitations {
			var count int64
			q := tx.Model(&accesspg.GrantModel{}).
				Where("calendar_id = ? AND user_id = ?", inv.CalendarID, userID)
			if inv.SubCalendarID == nil {
				q = q.Where("sub_calendar_id IS NULL")
			} else {
				q = q.Where("sub_calendar_id = ?", *inv.SubCalendarID)
			}
			if err := q.Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				uid := userID
				grant := &accesspg.GrantModel{
					ID:            uuid.New(),
					CalendarID:    inv.CalendarID,
					SubCalendarID: inv.SubCalendarID,
					UserID:        &uid,
					Permission:    inv.Permission,
				}
				if err := tx.Create(grant).Error; err != nil {
					return err
				}
			}

			if inv.GroupID != nil {
				var members int64
				if err := tx.Model(&grouppg.GroupMemberModel{}).
					Where("group_id = ? AND user_id = ?", *inv.GroupID, userID).
					Count(&members).Error; err != nil {
					return err
				}
				if members == 0 {
					member := &grouppg.GroupMemberModel{GroupID: *inv.GroupID, UserID: userID}
					if err := tx.Create(member).Error; err != nil {
						return err
					}
				}
			}

			if err := tx.Where("id = ?", inv.ID).Delete(&PendingInvitationModel{}).Error; err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
