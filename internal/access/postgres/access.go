package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// GrantModel is the calendar_access row. Exactly one of UserID/GroupID/LinkID
// is set; the database keeps three nullable columns and toDomain enforces the
// rule when reading.
type GrantModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CalendarID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubCalendarID *uuid.UUID `gorm:"type:uuid"`
	UserID        *uuid.UUID `gorm:"type:uuid;index"`
	GroupID       *uuid.UUID `gorm:"type:uuid;index"`
	LinkID        *uuid.UUID `gorm:"type:uuid;index"`
	Permission    string     `gorm:"not null"`
}

func (GrantModel) TableName() string { return "calendar_access" }

type LinkModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CalendarID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token      string     `gorm:"size:100;uniqueIndex;not null"`
	Label      string     `gorm:"size:255"`
	Active     bool       `gorm:"not null;default:true"`
	GroupID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time
}

func (LinkModel) TableName() string { return "access_links" }

// AccessRepository implements access.Store using GORM.
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func toDomainGrant(m *GrantModel) (*access.Grant, error) {
	var grantee access.Grantee
	set := 0
	if m.UserID != nil {
		grantee = access.UserGrantee(*m.UserID)
		set++
	}
	if m.GroupID != nil {
		grantee = access.GroupGrantee(*m.GroupID)
		set++
	}
	if m.LinkID != nil {
		grantee = access.LinkGrantee(*m.LinkID)
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("calendar_access row %s has %d grantees set, want exactly 1", m.ID, set)
	}
	return &access.Grant{
		ID:            m.ID,
		CalendarID:    m.CalendarID,
		SubCalendarID: m.SubCalendarID,
		Grantee:       grantee,
		Permission:    permission.Permission(m.Permission),
	}, nil
}

func toModelGrant(g *access.Grant) *GrantModel {
	m := &GrantModel{
		ID:            g.ID,
		CalendarID:    g.CalendarID,
		SubCalendarID: g.SubCalendarID,
		Permission:    string(g.Permission),
	}
	id := g.Grantee.ID
	switch g.Grantee.Kind {
	case access.GranteeUser:
		m.UserID = &id
	case access.GranteeGroup:
		m.GroupID = &id
	case access.GranteeLink:
		m.LinkID = &id
	}
	return m
}

func granteeColumn(kind access.GranteeKind) string {
	switch kind {
	case access.GranteeUser:
		return "user_id"
	case access.GranteeGroup:
		return "group_id"
	default:
		return "link_id"
	}
}

func toDomainLink(m *LinkModel) *access.Link {
	return &access.Link{
		ID:         m.ID,
		CalendarID: m.CalendarID,
		Token:      m.Token,
		Label:      m.Label,
		Active:     m.Active,
		GroupID:    m.GroupID,
		CreatedAt:  m.CreatedAt,
	}
}

// ---- Reader ----

func (r *AccessRepository) CalendarOwnerID(ctx context.Context, calendarID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.WithContext(ctx).
		Table("calendars").
		Select("owner_id").
		Where("id = ?", calendarID).
		Take(&ownerID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return ownerID, nil
}

// UserPermissions fetches direct and group-derived grant permissions in a
// single query; group membership goes through a subquery on group_members.
func (r *AccessRepository) UserPermissions(ctx context.Context, calendarID, userID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Table("calendar_access").
		Where("calendar_id = ?", calendarID).
		Where("sub_calendar_id IS NULL OR sub_calendar_id = ?", subCalendarID).
		Where("user_id = ? OR group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)", userID, userID).
		Pluck("permission", &raw).Error
	if err != nil {
		return nil, err
	}
	return toPermissions(raw), nil
}

func (r *AccessRepository) ActiveLinkByToken(ctx context.Context, calendarID uuid.UUID, token string) (*access.Link, error) {
	var m LinkModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ? AND token = ? AND active = ?", calendarID, token, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainLink(&m), nil
}

func (r *AccessRepository) LinkPermissions(ctx context.Context, linkID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Table("calendar_access").
		Where("link_id = ?", linkID).
		Where("sub_calendar_id IS NULL OR sub_calendar_id = ?", subCalendarID).
		Pluck("permission", &raw).Error
	if err != nil {
		return nil, err
	}
	return toPermissions(raw), nil
}

func toPermissions(raw []string) []permission.Permission {
	perms := make([]permission.Permission, 0, len(raw))
	for _, s := range raw {
		perms = append(perms, permission.Permission(s))
	}
	return perms
}

// ---- grant mutations ----

func (r *AccessRepository) CreateGrant(ctx context.Context, grant *access.Grant) error {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(toModelGrant(grant)).Error
}

func (r *AccessRepository) GrantByID(ctx context.Context, id uuid.UUID) (*access.Grant, error) {
	var m GrantModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainGrant(&m)
}

func (r *AccessRepository) ListGrants(ctx context.Context, calendarID uuid.UUID, excludeLinks bool) ([]*access.Grant, error) {
	q := r.db.WithContext(ctx).Where("calendar_id = ?", calendarID)
	if excludeLinks {
		q = q.Where("link_id IS NULL")
	}
	var models []GrantModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainGrants(models)
}

func (r *AccessRepository) ListGrantsForGrantee(ctx context.Context, calendarID uuid.UUID, grantee access.Grantee) ([]*access.Grant, error) {
	var models []GrantModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Where(granteeColumn(grantee.Kind)+" = ?", grantee.ID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainGrants(models)
}

func (r *AccessRepository) FindGrant(ctx context.Context, calendarID uuid.UUID, grantee access.Grantee, subCalendarID *uuid.UUID) (*access.Grant, error) {
	q := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Where(granteeColumn(grantee.Kind)+" = ?", grantee.ID)
	if subCalendarID == nil {
		q = q.Where("sub_calendar_id IS NULL")
	} else {
		q = q.Where("sub_calendar_id = ?", *subCalendarID)
	}
	var m GrantModel
	err := q.First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainGrant(&m)
}

func (r *AccessRepository) UpdateGrantPermission(ctx context.Context, id uuid.UUID, p permission.Permission) error {
	return r.db.WithContext(ctx).
		Model(&GrantModel{}).
		Where("id = ?", id).
		Update("permission", string(p)).Error
}

func (r *AccessRepository) DeleteGrant(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&GrantModel{}).Error
}

func (r *AccessRepository) DeleteGrantsForGrantee(ctx context.Context, grantee access.Grantee) error {
	return r.db.WithContext(ctx).
		Where(granteeColumn(grantee.Kind)+" = ?", grantee.ID).
		Delete(&GrantModel{}).Error
}

func toDomainGrants(models []GrantModel) ([]*access.Grant, error) {
	grants := make([]*access.Grant, 0, len(models))
	for i := range models {
		g, err := toDomainGrant(&models[i])
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// ---- link mutations ----

func (r *AccessRepository) CreateLink(ctx context.Context, link *access.Link) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	m := &LinkModel{
		ID:         link.ID,
		CalendarID: link.CalendarID,
		Token:      link.Token,
		Label:      link.Label,
		Active:     link.Active,
		GroupID:    link.GroupID,
		CreatedAt:  link.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *AccessRepository) LinkByID(ctx context.Context, id uuid.UUID) (*access.Link, error) {
	var m LinkModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainLink(&m), nil
}

func (r *AccessRepository) ListLinks(ctx context.Context, calendarID uuid.UUID) ([]*access.Link, error) {
	var models []LinkModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	links := make([]*access.Link, 0, len(models))
	for i := range models {
		links = append(links, toDomainLink(&models[i]))
	}
	return links, nil
}

func (r *AccessRepository) UpdateLink(ctx context.Context, link *access.Link) error {
	return r.db.WithContext(ctx).
		Model(&LinkModel{}).
		Where("id = ?", link.ID).
		Updates(map[string]interface{}{
			"label":    link.Label,
			"active":   link.Active,
			"group_id": link.GroupID,
		}).Error
}

// DeleteLink removes the link's grant rows first, then the link itself.
func (r *AccessRepository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&GrantModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&LinkModel{}).Error
	})
}
