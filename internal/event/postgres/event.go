package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/calendar-sharing/internal/event"
)

// EventModel is the events row. CustomFields and Translations are stored
// as JSON text so the schema stays portable across postgres and sqlite.
type EventModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CalendarID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubCalendarID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID      *uuid.UUID `gorm:"type:uuid;index"`
	Title         string     `gorm:"size:255;not null"`
	Location      string     `gorm:"size:500"`
	Notes         string     `gorm:"type:text"`
	Who           string     `gorm:"size:500"`
	StartsAt      time.Time  `gorm:"not null;index"`
	EndsAt        time.Time  `gorm:"not null;index"`
	AllDay        bool       `gorm:"not null;default:false"`
	RRule         string     `gorm:"size:500"`
	Latitude      *float64
	Longitude     *float64
	CustomFields  string `gorm:"type:text"`
	Translations  string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (EventModel) TableName() string { return "events" }

// EventTagModel is the events-to-tags join row.
type EventTagModel struct {
	EventID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (EventTagModel) TableName() string { return "event_tags" }

type SignupModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Name      string     `gorm:"size:100;not null"`
	CreatedAt time.Time
}

func (SignupModel) TableName() string { return "event_signups" }

type CommentModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID     *uuid.UUID `gorm:"type:uuid;index"`
	Body         string     `gorm:"type:text;not null"`
	Translations string     `gorm:"type:text"`
	CreatedAt    time.Time
}

func (CommentModel) TableName() string { return "event_comments" }

type AttachmentModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	UploadedBy  *uuid.UUID `gorm:"type:uuid"`
	FileName    string     `gorm:"size:255;not null"`
	ContentType string     `gorm:"size:127"`
	Size        int64      `gorm:"not null;default:0"`
	StorageKey  string     `gorm:"size:500;not null"`
	URL         string     `gorm:"size:500;not null"`
	CreatedAt   time.Time
}

func (AttachmentModel) TableName() string { return "event_attachments" }

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toDomain(m *EventModel) (*event.Event, error) {
	e := &event.Event{
		ID:            m.ID,
		CalendarID:    m.CalendarID,
		SubCalendarID: m.SubCalendarID,
		AuthorID:      m.AuthorID,
		Title:         m.Title,
		Location:      m.Location,
		Notes:         m.Notes,
		Who:           m.Who,
		StartsAt:      m.StartsAt,
		EndsAt:        m.EndsAt,
		AllDay:        m.AllDay,
		RRule:         m.RRule,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.CustomFields != "" {
		if err := json.Unmarshal([]byte(m.CustomFields), &e.CustomFields); err != nil {
			return nil, err
		}
	}
	if m.Translations != "" {
		if err := json.Unmarshal([]byte(m.Translations), &e.Translations); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func toModel(e *event.Event) (*EventModel, error) {
	m := &EventModel{
		ID:            e.ID,
		CalendarID:    e.CalendarID,
		SubCalendarID: e.SubCalendarID,
		AuthorID:      e.AuthorID,
		Title:         e.Title,
		Location:      e.Location,
		Notes:         e.Notes,
		Who:           e.Who,
		StartsAt:      e.StartsAt,
		EndsAt:        e.EndsAt,
		AllDay:        e.AllDay,
		RRule:         e.RRule,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	var err error
	if e.CustomFields != nil {
		if m.CustomFields, err = marshalJSON(e.CustomFields); err != nil {
			return nil, err
		}
	}
	if e.Translations != nil {
		if m.Translations, err = marshalJSON(e.Translations); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *EventRepository) CreateEvent(ctx context.Context, e *event.Event) error {
	m, err := toModel(e)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return replaceEventTags(tx, e.ID, e.TagIDs)
	})
}

// replaceEventTags rewrites the event's join rows to exactly tagIDs.
func replaceEventTags(tx *gorm.DB, eventID uuid.UUID, tagIDs []uuid.UUID) error {
	if err := tx.Where("event_id = ?", eventID).Delete(&EventTagModel{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]EventTagModel, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, EventTagModel{EventID: eventID, TagID: tagID})
	}
	return tx.Create(&rows).Error
}

func (r *EventRepository) eventTagIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&EventTagModel{}).
		Where("event_id = ?", eventID).
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

func (r *EventRepository) EventByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	var m EventModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e, err := toDomain(&m)
	if err != nil {
		return nil, err
	}
	if e.TagIDs, err = r.eventTagIDs(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EventRepository) ListEvents(ctx context.Context, calendarID uuid.UUID, window event.Window) ([]*event.Event, error) {
	q := r.db.WithContext(ctx).Where("calendar_id = ?", calendarID)
	if window.From != nil {
		q = q.Where("ends_at >= ?", *window.From)
	}
	if window.To != nil {
		q = q.Where("starts_at <= ?", *window.To)
	}

	var models []*EventModel
	if err := q.Order("starts_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*event.Event, 0, len(models))
	ids := make([]uuid.UUID, 0, len(models))
	byID := make(map[uuid.UUID]*event.Event, len(models))
	for _, m := range models {
		e, err := toDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	if len(ids) > 0 {
		var rows []EventTagModel
		err := r.db.WithContext(ctx).
			Where("event_id IN ?", ids).
			Order("tag_id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			e := byID[row.EventID]
			e.TagIDs = append(e.TagIDs, row.TagID)
		}
	}

	return out, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, e *event.Event) error {
	m, err := toModel(e)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&EventModel{}).Where("id = ?", e.ID).Updates(map[string]interface{}{
			"sub_calendar_id": m.SubCalendarID,
			"title":           m.Title,
			"location":        m.Location,
			"notes":           m.Notes,
			"who":             m.Who,
			"starts_at":       m.StartsAt,
			"ends_at":         m.EndsAt,
			"all_day":         m.AllDay,
			"r_rule":          m.RRule,
			"latitude":        m.Latitude,
			"longitude":       m.Longitude,
			"custom_fields":   m.CustomFields,
			"translations":    m.Translations,
			"updated_at":      m.UpdatedAt,
		}).Error
		if err != nil {
			return err
		}
		return replaceEventTags(tx, e.ID, e.TagIDs)
	})
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&EventTagModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&SignupModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&CommentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&AttachmentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&EventModel{}).Error
	})
}

func (r *EventRepository) SaveEventTranslations(ctx context.Context, id uuid.UUID, t event.TranslationMap) error {
	encoded, err := marshalJSON(t)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&EventModel{}).
		Where("id = ?", id).
		Update("translations", encoded).Error
}

func (r *EventRepository) CreateSignup(ctx context.Context, s *event.Signup) error {
	return r.db.WithContext(ctx).Create(&SignupModel{
		ID:        s.ID,
		EventID:   s.EventID,
		UserID:    s.UserID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
	}).Error
}

func (r *EventRepository) SignupByID(ctx context.Context, id uuid.UUID) (*event.Signup, error) {
	var m SignupModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return signupToDomain(&m), nil
}

func (r *EventRepository) ListSignups(ctx context.Context, eventID uuid.UUID) ([]*event.Signup, error) {
	var models []*SignupModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*event.Signup, 0, len(models))
	for _, m := range models {
		out = append(out, signupToDomain(m))
	}
	return out, nil
}

func (r *EventRepository) DeleteSignup(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&SignupModel{}).Error
}

func signupToDomain(m *SignupModel) *event.Signup {
	return &event.Signup{
		ID:        m.ID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

func (r *EventRepository) CreateComment(ctx context.Context, c *event.Comment) error {
	encoded, err := marshalJSON(c.Translations)
	if err != nil {
		return err
	}
	if c.Translations == nil {
		encoded = ""
	}
	return r.db.WithContext(ctx).Create(&CommentModel{
		ID:           c.ID,
		EventID:      c.EventID,
		AuthorID:     c.AuthorID,
		Body:         c.Body,
		Translations: encoded,
		CreatedAt:    c.CreatedAt,
	}).Error
}

func (r *EventRepository) CommentByID(ctx context.Context, id uuid.UUID) (*event.Comment, error) {
	var m CommentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return commentToDomain(&m)
}

func (r *EventRepository) ListComments(ctx context.Context, eventID uuid.UUID) ([]*event.Comment, error) {
	var models []*CommentModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*event.Comment, 0, len(models))
	for _, m := range models {
		c, err := commentToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *EventRepository) UpdateComment(ctx context.Context, c *event.Comment) error {
	encoded, err := marshalJSON(c.Translations)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&CommentModel{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"body":         c.Body,
		"translations": encoded,
	}).Error
}

func (r *EventRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&CommentModel{}).Error
}

func (r *EventRepository) SaveCommentTranslations(ctx context.Context, id uuid.UUID, t event.TranslationMap) error {
	encoded, err := marshalJSON(t)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&CommentModel{}).
		Where("id = ?", id).
		Update("translations", encoded).Error
}

func commentToDomain(m *CommentModel) (*event.Comment, error) {
	c := &event.Comment{
		ID:        m.ID,
		EventID:   m.EventID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
	if m.Translations != "" {
		if err := json.Unmarshal([]byte(m.Translations), &c.Translations); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *EventRepository) CreateAttachment(ctx context.Context, a *event.Attachment) error {
	return r.db.WithContext(ctx).Create(&AttachmentModel{
		ID:          a.ID,
		EventID:     a.EventID,
		UploadedBy:  a.UploadedBy,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		StorageKey:  a.StorageKey,
		URL:         a.URL,
		CreatedAt:   a.CreatedAt,
	}).Error
}

func (r *EventRepository) AttachmentByID(ctx context.Context, id uuid.UUID) (*event.Attachment, error) {
	var m AttachmentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return attachmentToDomain(&m), nil
}

func (r *EventRepository) ListAttachments(ctx context.Context, eventID uuid.UUID) ([]*event.Attachment, error) {
	var models []*AttachmentModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*event.Attachment, 0, len(models))
	for _, m := range models {
		out = append(out, attachmentToDomain(m))
	}
	return out, nil
}

func (r *EventRepository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&AttachmentModel{}).Error
}

func attachmentToDomain(m *AttachmentModel) *event.Attachment {
	return &event.Attachment{
		ID:          m.ID,
		EventID:     m.EventID,
		UploadedBy:  m.UploadedBy,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
		StorageKey:  m.StorageKey,
		URL:         m.URL,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *EventRepository) DeleteForCalendar(ctx context.Context, calendarID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&EventModel{}).Select("id").Where("calendar_id = ?", calendarID)

		if err := tx.Where("event_id IN (?)", sub).Delete(&EventTagModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id IN (?)", sub).Delete(&SignupModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id IN (?)", sub).Delete(&CommentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id IN (?)", sub).Delete(&AttachmentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("calendar_id = ?", calendarID).Delete(&EventModel{}).Error
	})
}

func (r *EventRepository) NullifyAuthorship(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&EventModel{}).Where("author_id = ?", userID).
			Update("author_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&CommentModel{}).Where("author_id = ?", userID).
			Update("author_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&AttachmentModel{}).Where("uploaded_by = ?", userID).
			Update("uploaded_by", nil).Error
	})
}
