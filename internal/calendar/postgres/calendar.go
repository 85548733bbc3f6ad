package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/calendar-sharing/internal/calendar"
	"github.com/frahmantamala/calendar-sharing/internal/sharing"
)

// CalendarModel is the calendars row.
type CalendarModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Slug               string    `gorm:"size:100;uniqueIndex;not null"`
	Title              string    `gorm:"size:255;not null"`
	Description        string    `gorm:"size:2000"`
	Timezone           string    `gorm:"size:64;not null;default:UTC"`
	Language           string    `gorm:"size:8;not null;default:en"`
	WeekStartsMonday   bool      `gorm:"not null;default:false"`
	EmailNotifications bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time
}

func (CalendarModel) TableName() string { return "calendars" }

type SubCalendarModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CalendarID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:255;not null"`
	Color      string    `gorm:"size:32"`
	Active     bool      `gorm:"not null;default:true"`
	Position   int       `gorm:"not null;default:0"`
}

func (SubCalendarModel) TableName() string { return "sub_calendars" }

type TagModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CalendarID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:100;not null"`
	Color      string    `gorm:"size:32"`
}

func (TagModel) TableName() string { return "tags" }

// CalendarRepository implements calendar.Repository and the sharing
// package's CalendarReader on the same storage.
type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func toDomain(m *CalendarModel) *calendar.Calendar {
	return &calendar.Calendar{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		Slug:               m.Slug,
		Title:              m.Title,
		Description:        m.Description,
		Timezone:           m.Timezone,
		Language:           m.Language,
		WeekStartsMonday:   m.WeekStartsMonday,
		EmailNotifications: m.EmailNotifications,
		CreatedAt:          m.CreatedAt,
	}
}

func toModel(c *calendar.Calendar) *CalendarModel {
	return &CalendarModel{
		ID:                 c.ID,
		OwnerID:            c.OwnerID,
		Slug:               c.Slug,
		Title:              c.Title,
		Description:        c.Description,
		Timezone:           c.Timezone,
		Language:           c.Language,
		WeekStartsMonday:   c.WeekStartsMonday,
		EmailNotifications: c.EmailNotifications,
		CreatedAt:          c.CreatedAt,
	}
}

func (r *CalendarRepository) Create(ctx context.Context, c *calendar.Calendar) error {
	return r.db.WithContext(ctx).Create(toModel(c)).Error
}

func (r *CalendarRepository) ByID(ctx context.Context, id uuid.UUID) (*calendar.Calendar, error) {
	var m CalendarModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *CalendarRepository) BySlug(ctx context.Context, slug string) (*calendar.Calendar, error) {
	var m CalendarModel
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *CalendarRepository) ForOwner(ctx context.Context, ownerID uuid.UUID) ([]*calendar.Calendar, error) {
	var models []*CalendarModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*calendar.Calendar, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *CalendarRepository) Update(ctx context.Context, c *calendar.Calendar) error {
	return r.db.WithContext(ctx).Save(toModel(c)).Error
}

func (r *CalendarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&CalendarModel{}).Error
}

func (r *CalendarRepository) CreateSubCalendar(ctx context.Context, sc *calendar.SubCalendar) error {
	m := &SubCalendarModel{
		ID:         sc.ID,
		CalendarID: sc.CalendarID,
		Name:       sc.Name,
		Color:      sc.Color,
		Active:     sc.Active,
		Position:   sc.Position,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func subToDomain(m *SubCalendarModel) *calendar.SubCalendar {
	return &calendar.SubCalendar{
		ID:         m.ID,
		CalendarID: m.CalendarID,
		Name:       m.Name,
		Color:      m.Color,
		Active:     m.Active,
		Position:   m.Position,
	}
}

func (r *CalendarRepository) SubCalendarByID(ctx context.Context, id uuid.UUID) (*calendar.SubCalendar, error) {
	var m SubCalendarModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return subToDomain(&m), nil
}

func (r *CalendarRepository) SubCalendars(ctx context.Context, calendarID uuid.UUID) ([]*calendar.SubCalendar, error) {
	var models []*SubCalendarModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("position ASC, name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*calendar.SubCalendar, 0, len(models))
	for _, m := range models {
		out = append(out, subToDomain(m))
	}
	return out, nil
}

func (r *CalendarRepository) UpdateSubCalendar(ctx context.Context, sc *calendar.SubCalendar) error {
	m := &SubCalendarModel{
		ID:         sc.ID,
		CalendarID: sc.CalendarID,
		Name:       sc.Name,
		Color:      sc.Color,
		Active:     sc.Active,
		Position:   sc.Position,
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *CalendarRepository) DeleteSubCalendar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&SubCalendarModel{}).Error
}

func (r *CalendarRepository) DeleteSubCalendars(ctx context.Context, calendarID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Delete(&SubCalendarModel{}).Error
}

func (r *CalendarRepository) CreateTag(ctx context.Context, t *calendar.Tag) error {
	m := &TagModel{ID: t.ID, CalendarID: t.CalendarID, Name: t.Name, Color: t.Color}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CalendarRepository) TagByID(ctx context.Context, id uuid.UUID) (*calendar.Tag, error) {
	var m TagModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &calendar.Tag{ID: m.ID, CalendarID: m.CalendarID, Name: m.Name, Color: m.Color}, nil
}

func (r *CalendarRepository) Tags(ctx context.Context, calendarID uuid.UUID) ([]*calendar.Tag, error) {
	var models []*TagModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*calendar.Tag, 0, len(models))
	for _, m := range models {
		out = append(out, &calendar.Tag{ID: m.ID, CalendarID: m.CalendarID, Name: m.Name, Color: m.Color})
	}
	return out, nil
}

func (r *CalendarRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM event_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&TagModel{}).Error
	})
}

func (r *CalendarRepository) DeleteTags(ctx context.Context, calendarID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			"DELETE FROM event_tags WHERE tag_id IN (SELECT id FROM tags WHERE calendar_id = ?)",
			calendarID).Error
		if err != nil {
			return err
		}
		return tx.Where("calendar_id = ?", calendarID).Delete(&TagModel{}).Error
	})
}

// FilterTags satisfies the event package's calendar source: it keeps only
// the ids of tags owned by the calendar, in input order, without
// duplicates.
func (r *CalendarRepository) FilterTags(ctx context.Context, calendarID uuid.UUID, tagIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	var valid []uuid.UUID
	err := r.db.WithContext(ctx).Model(&TagModel{}).
		Where("calendar_id = ? AND id IN ?", calendarID, tagIDs).
		Pluck("id", &valid).Error
	if err != nil {
		return nil, err
	}

	validSet := make(map[uuid.UUID]bool, len(valid))
	for _, id := range valid {
		validSet[id] = true
	}

	var out []uuid.UUID
	for _, id := range tagIDs {
		if validSet[id] {
			out = append(out, id)
			validSet[id] = false
		}
	}
	return out, nil
}

// CalendarInfo satisfies the sharing package's reader.
func (r *CalendarRepository) CalendarInfo(ctx context.Context, id uuid.UUID) (*sharing.CalendarInfo, error) {
	cal, err := r.ByID(ctx, id)
	if err != nil || cal == nil {
		return nil, err
	}
	return &sharing.CalendarInfo{
		ID:                 cal.ID,
		OwnerID:            cal.OwnerID,
		Title:              cal.Title,
		Language:           cal.Language,
		EmailNotifications: cal.EmailNotifications,
	}, nil
}

// SubCalendarExists satisfies the sharing package's reader.
func (r *CalendarRepository) SubCalendarExists(ctx context.Context, calendarID, subCalendarID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SubCalendarModel{}).
		Where("id = ? AND calendar_id = ?", subCalendarID, calendarID).
		Count(&count).Error
	return count > 0, err
}
