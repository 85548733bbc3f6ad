package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/calendar-sharing/internal/group"
)

type GroupModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CalendarID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:255;not null"`
	CreatedAt  time.Time
}

func (GroupModel) TableName() string { return "groups" }

type GroupMemberModel struct {
	GroupID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (GroupMemberModel) TableName() string { return "group_members" }

// GroupRepository implements group.Repository using GORM.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func toDomain(m *GroupModel) *group.Group {
	return &group.Group{
		ID:         m.ID,
		CalendarID: m.CalendarID,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
	}
}

func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	m := &GroupModel{ID: g.ID, CalendarID: g.CalendarID, Name: g.Name, CreatedAt: g.CreatedAt}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *GroupRepository) ByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	var m GroupModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *GroupRepository) ForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*group.Group, error) {
	var models []GroupModel
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	groups := make([]*group.Group, 0, len(models))
	for i := range models {
		groups = append(groups, toDomain(&models[i]))
	}
	return groups, nil
}

// Delete removes the group and its memberships. Grants held by the group are
// removed by the sharing service before this is called.
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&GroupMemberModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&GroupModel{}).Error
	})
}

func (r *GroupRepository) GroupIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("group_members").
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&GroupMemberModel{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&GroupMemberModel{GroupID: groupID, UserID: userID}).Error
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&GroupMemberModel{}).Error
}

func (r *GroupRepository) Members(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	var members []*group.Member
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.email, users.name").
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Scan(&members).Error
	return members, err
}

func (r *GroupRepository) MembershipsForCalendar(ctx context.Context, calendarID uuid.UUID) ([]*group.Membership, error) {
	groups, err := r.ForCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}
	byID := make(map[uuid.UUID]*group.Group, len(groups))
	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}

	var rows []GroupMemberModel
	if err := r.db.WithContext(ctx).Where("group_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	perUser := map[uuid.UUID][]group.Group{}
	order := []uuid.UUID{}
	for _, row := range rows {
		if _, seen := perUser[row.UserID]; !seen {
			order = append(order, row.UserID)
		}
		perUser[row.UserID] = append(perUser[row.UserID], *byID[row.GroupID])
	}

	memberships := make([]*group.Membership, 0, len(order))
	for _, uid := range order {
		memberships = append(memberships, &group.Membership{UserID: uid, Groups: perUser[uid]})
	}
	return memberships, nil
}

func (r *GroupRepository) RemoveUserFromAllGroups(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&GroupMemberModel{}).Error
}
