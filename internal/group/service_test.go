package group

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

func TestGroup(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Group Membership Suite")
}

type memberKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

type mockGroupRepo struct {
	groups  map[uuid.UUID]*Group
	members map[memberKey]bool
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:  map[uuid.UUID]*Group{},
		members: map[memberKey]bool{},
	}
}

func (m *mockGroupRepo) Create(_ context.Context, g *Group) error {
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupRepo) ByID(_ context.Context, id uuid.UUID) (*Group, error) {
	return m.groups[id], nil
}

func (m *mockGroupRepo) ForCalendar(_ context.Context, calendarID uuid.UUID) ([]*Group, error) {
	var out []*Group
	for _, g := range m.groups {
		if g.CalendarID == calendarID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepo) GroupIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for k := range m.members {
		if k.userID == userID {
			ids = append(ids, k.groupID)
		}
	}
	return ids, nil
}

func (m *mockGroupRepo) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	return m.members[memberKey{groupID, userID}], nil
}

func (m *mockGroupRepo) AddMember(_ context.Context, groupID, userID uuid.UUID) error {
	m.members[memberKey{groupID, userID}] = true
	return nil
}

func (m *mockGroupRepo) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	delete(m.members, memberKey{groupID, userID})
	return nil
}

func (m *mockGroupRepo) Members(_ context.Context, _ uuid.UUID) ([]*Member, error) {
	return nil, nil
}

func (m *mockGroupRepo) MembershipsForCalendar(_ context.Context, _ uuid.UUID) ([]*Membership, error) {
	return nil, nil
}

func (m *mockGroupRepo) RemoveUserFromAllGroups(_ context.Context, userID uuid.UUID) error {
	for k := range m.members {
		if k.userID == userID {
			delete(m.members, k)
		}
	}
	return nil
}

type mockLinkFinder struct {
	links map[string]*access.Link
}

func (m *mockLinkFinder) ActiveLinkByToken(_ context.Context, calendarID uuid.UUID, token string) (*access.Link, error) {
	l, ok := m.links[token]
	if !ok || !l.Active || l.CalendarID != calendarID {
		return nil, nil
	}
	return l, nil
}

var _ = ginkgo.Describe("Group Service", func() {
	var (
		repo    *mockGroupRepo
		links   *mockLinkFinder
		service *Service
		ctx     context.Context

		calendarID uuid.UUID
		groupID    uuid.UUID
		userID     uuid.UUID
	)

	ginkgo.BeforeEach(func() {
		repo = newMockGroupRepo()
		links = &mockLinkFinder{links: map[string]*access.Link{}}
		service = NewService(repo, links, logger.LoggerWrapper())
		ctx = context.Background()

		calendarID = uuid.New()
		groupID = uuid.New()
		userID = uuid.New()
		repo.groups[groupID] = &Group{ID: groupID, CalendarID: calendarID, Name: "staff"}
	})

	ginkgo.Describe("AddMember", func() {
		ginkgo.It("adds a new member", func() {
			gomega.Expect(service.AddMember(ctx, groupID, userID)).To(gomega.Succeed())

			member, err := service.IsMember(ctx, groupID, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(member).To(gomega.BeTrue())
		})

		ginkgo.It("conflicts when already a member", func() {
			gomega.Expect(service.AddMember(ctx, groupID, userID)).To(gomega.Succeed())

			err := service.AddMember(ctx, groupID, userID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAlreadyMember))
		})
	})

	ginkgo.Describe("RemoveMember", func() {
		ginkgo.It("is idempotent for non-members", func() {
			gomega.Expect(service.RemoveMember(ctx, groupID, userID)).To(gomega.Succeed())
			gomega.Expect(service.RemoveMember(ctx, groupID, userID)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("ClaimLink", func() {
		ginkgo.It("joins the bound group and returns it", func() {
			links.links["tok"] = &access.Link{
				ID: uuid.New(), CalendarID: calendarID, Token: "tok", Active: true, GroupID: &groupID,
			}

			grp, err := service.ClaimLink(ctx, calendarID, "tok", userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grp.ID).To(gomega.Equal(groupID))

			member, _ := service.IsMember(ctx, groupID, userID)
			gomega.Expect(member).To(gomega.BeTrue())
		})

		ginkgo.It("is idempotent when already a member", func() {
			links.links["tok"] = &access.Link{
				ID: uuid.New(), CalendarID: calendarID, Token: "tok", Active: true, GroupID: &groupID,
			}
			gomega.Expect(service.AddMember(ctx, groupID, userID)).To(gomega.Succeed())

			grp, err := service.ClaimLink(ctx, calendarID, "tok", userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grp.ID).To(gomega.Equal(groupID))
		})

		ginkgo.It("returns not found for an inactive link", func() {
			links.links["tok"] = &access.Link{
				ID: uuid.New(), CalendarID: calendarID, Token: "tok", Active: false, GroupID: &groupID,
			}

			_, err := service.ClaimLink(ctx, calendarID, "tok", userID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})

		ginkgo.It("returns not found for a link without a bound group", func() {
			links.links["tok"] = &access.Link{
				ID: uuid.New(), CalendarID: calendarID, Token: "tok", Active: true,
			}

			_, err := service.ClaimLink(ctx, calendarID, "tok", userID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})
	})
})
