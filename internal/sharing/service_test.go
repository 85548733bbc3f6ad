package sharing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/group"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/user"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

func TestSharing(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Sharing Suite")
}

type mockStore struct {
	owners map[uuid.UUID]uuid.UUID
	grants map[uuid.UUID]*access.Grant
	links  map[uuid.UUID]*access.Link
	groups *mockGroups
}

func newMockStore(groups *mockGroups) *mockStore {
	return &mockStore{
		owners: map[uuid.UUID]uuid.UUID{},
		grants: map[uuid.UUID]*access.Grant{},
		links:  map[uuid.UUID]*access.Link{},
		groups: groups,
	}
}

func scopeEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func scopeApplies(grantScope, askScope *uuid.UUID) bool {
	return grantScope == nil || (askScope != nil && *grantScope == *askScope)
}

func (m *mockStore) CalendarOwnerID(_ context.Context, calendarID uuid.UUID) (uuid.UUID, error) {
	return m.owners[calendarID], nil
}

func (m *mockStore) UserPermissions(ctx context.Context, calendarID, userID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	groupIDs, _ := m.groups.GroupIDsForUser(ctx, userID)
	inGroup := func(id uuid.UUID) bool {
		for _, g := range groupIDs {
			if g == id {
				return true
			}
		}
		return false
	}

	var perms []permission.Permission
	for _, g := range m.grants {
		if g.CalendarID != calendarID || !scopeApplies(g.SubCalendarID, subCalendarID) {
			continue
		}
		switch g.Grantee.Kind {
		case access.GranteeUser:
			if g.Grantee.ID == userID {
				perms = append(perms, g.Permission)
			}
		case access.GranteeGroup:
			if inGroup(g.Grantee.ID) {
				perms = append(perms, g.Permission)
			}
		}
	}
	return perms, nil
}

func (m *mockStore) ActiveLinkByToken(_ context.Context, calendarID uuid.UUID, token string) (*access.Link, error) {
	for _, l := range m.links {
		if l.CalendarID == calendarID && l.Token == token && l.Active {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockStore) LinkPermissions(_ context.Context, linkID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	var perms []permission.Permission
	for _, g := range m.grants {
		if g.Grantee.Kind == access.GranteeLink && g.Grantee.ID == linkID && scopeApplies(g.SubCalendarID, subCalendarID) {
			perms = append(perms, g.Permission)
		}
	}
	return perms, nil
}

func (m *mockStore) CreateGrant(_ context.Context, grant *access.Grant) error {
	m.grants[grant.ID] = grant
	return nil
}

func (m *mockStore) GrantByID(_ context.Context, id uuid.UUID) (*access.Grant, error) {
	return m.grants[id], nil
}

func (m *mockStore) ListGrants(_ context.Context, calendarID uuid.UUID, excludeLinks bool) ([]*access.Grant, error) {
	var out []*access.Grant
	for _, g := range m.grants {
		if g.CalendarID != calendarID {
			continue
		}
		if excludeLinks && g.Grantee.Kind == access.GranteeLink {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *mockStore) ListGrantsForGrantee(_ context.Context, calendarID uuid.UUID, grantee access.Grantee) ([]*access.Grant, error) {
	var out []*access.Grant
	for _, g := range m.grants {
		if g.CalendarID == calendarID && g.Grantee == grantee {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockStore) FindGrant(_ context.Context, calendarID uuid.UUID, grantee access.Grantee, subCalendarID *uuid.UUID) (*access.Grant, error) {
	for _, g := range m.grants {
		if g.CalendarID == calendarID && g.Grantee == grantee && scopeEqual(g.SubCalendarID, subCalendarID) {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpdateGrantPermission(_ context.Context, id uuid.UUID, p permission.Permission) error {
	if g, ok := m.grants[id]; ok {
		g.Permission = p
	}
	return nil
}

func (m *mockStore) DeleteGrant(_ context.Context, id uuid.UUID) error {
	delete(m.grants, id)
	return nil
}

func (m *mockStore) DeleteGrantsForGrantee(_ context.Context, grantee access.Grantee) error {
	for id, g := range m.grants {
		if g.Grantee == grantee {
			delete(m.grants, id)
		}
	}
	return nil
}

func (m *mockStore) CreateLink(_ context.Context, link *access.Link) error {
	m.links[link.ID] = link
	return nil
}

func (m *mockStore) LinkByID(_ context.Context, id uuid.UUID) (*access.Link, error) {
	return m.links[id], nil
}

func (m *mockStore) ListLinks(_ context.Context, calendarID uuid.UUID) ([]*access.Link, error) {
	var out []*access.Link
	for _, l := range m.links {
		if l.CalendarID == calendarID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateLink(_ context.Context, link *access.Link) error {
	m.links[link.ID] = link
	return nil
}

func (m *mockStore) DeleteLink(_ context.Context, id uuid.UUID) error {
	_ = m.DeleteGrantsForGrantee(context.Background(), access.LinkGrantee(id))
	delete(m.links, id)
	return nil
}

type groupMemberKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

type mockGroups struct {
	groups  map[uuid.UUID]*group.Group
	members map[groupMemberKey]bool
}

func newMockGroups() *mockGroups {
	return &mockGroups{groups: map[uuid.UUID]*group.Group{}, members: map[groupMemberKey]bool{}}
}

func (m *mockGroups) Create(_ context.Context, g *group.Group) error {
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroups) ByID(_ context.Context, id uuid.UUID) (*group.Group, error) {
	return m.groups[id], nil
}

func (m *mockGroups) ForCalendar(_ context.Context, calendarID uuid.UUID) ([]*group.Group, error) {
	var out []*group.Group
	for _, g := range m.groups {
		if g.CalendarID == calendarID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGroups) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.groups, id)
	for k := range m.members {
		if k.groupID == id {
			delete(m.members, k)
		}
	}
	return nil
}

func (m *mockGroups) GroupIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for k := range m.members {
		if k.userID == userID {
			out = append(out, k.groupID)
		}
	}
	return out, nil
}

func (m *mockGroups) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	return m.members[groupMemberKey{groupID, userID}], nil
}

func (m *mockGroups) AddMember(_ context.Context, groupID, userID uuid.UUID) error {
	m.members[groupMemberKey{groupID, userID}] = true
	return nil
}

func (m *mockGroups) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	delete(m.members, groupMemberKey{groupID, userID})
	return nil
}

func (m *mockGroups) Members(_ context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	var out []*group.Member
	for k := range m.members {
		if k.groupID == groupID {
			out = append(out, &group.Member{ID: k.userID})
		}
	}
	return out, nil
}

func (m *mockGroups) MembershipsForCalendar(_ context.Context, _ uuid.UUID) ([]*group.Membership, error) {
	return nil, nil
}

func (m *mockGroups) RemoveUserFromAllGroups(_ context.Context, userID uuid.UUID) error {
	for k := range m.members {
		if k.userID == userID {
			delete(m.members, k)
		}
	}
	return nil
}

type mockUsers struct {
	users map[uuid.UUID]*user.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: map[uuid.UUID]*user.User{}}
}

func (m *mockUsers) Create(_ context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUsers) ByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return m.users[id], nil
}

func (m *mockUsers) ByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) List(_ context.Context, _, _ int) ([]*user.User, error) { return nil, nil }
func (m *mockUsers) SetAdmin(_ context.Context, _ uuid.UUID, _ bool) error  { return nil }
func (m *mockUsers) SetVerified(_ context.Context, _ uuid.UUID) error       { return nil }
func (m *mockUsers) LiftBan(_ context.Context, _ uuid.UUID) error           { return nil }
func (m *mockUsers) Delete(_ context.Context, _ uuid.UUID) error            { return nil }
func (m *mockUsers) SetBan(_ context.Context, _ uuid.UUID, _ *time.Time, _ *string) error {
	return nil
}
func (m *mockUsers) UpdatePassword(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

type mockPending struct {
	invitations map[uuid.UUID]*PendingInvitation
	store       *mockStore
	groups      *mockGroups
}

func newMockPending(store *mockStore, groups *mockGroups) *mockPending {
	return &mockPending{invitations: map[uuid.UUID]*PendingInvitation{}, store: store, groups: groups}
}

func (m *mockPending) Create(_ context.Context, inv *PendingInvitation) error {
	m.invitations[inv.ID] = inv
	return nil
}

func (m *mockPending) ByID(_ context.Context, id uuid.UUID) (*PendingInvitation, error) {
	return m.invitations[id], nil
}

func (m *mockPending) Find(_ context.Context, calendarID uuid.UUID, email string) (*PendingInvitation, error) {
	for _, inv := range m.invitations {
		if inv.CalendarID == calendarID && inv.Email == email {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *mockPending) ListForCalendar(_ context.Context, calendarID uuid.UUID) ([]*PendingInvitation, error) {
	var out []*PendingInvitation
	for _, inv := range m.invitations {
		if inv.CalendarID == calendarID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockPending) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.invitations, id)
	return nil
}

func (m *mockPending) DeleteForCalendar(_ context.Context, calendarID uuid.UUID) error {
	for id, inv := range m.invitations {
		if inv.CalendarID == calendarID {
			delete(m.invitations, id)
		}
	}
	return nil
}

func (m *mockPending) DeleteForUser(_ context.Context, userID uuid.UUID, email string) error {
	for id, inv := range m.invitations {
		if inv.InvitedBy == userID || inv.Email == email {
			delete(m.invitations, id)
		}
	}
	return nil
}

func (m *mockPending) MarkEmailSent(_ context.Context, id uuid.UUID) error {
	if inv, ok := m.invitations[id]; ok {
		inv.EmailSent = true
	}
	return nil
}

func (m *mockPending) ApplyPending(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	applied := 0
	for id, inv := range m.invitations {
		if inv.Email != email {
			continue
		}
		grant := &access.Grant{
			ID:            uuid.New(),
			CalendarID:    inv.CalendarID,
			SubCalendarID: inv.SubCalendarID,
			Grantee:       access.UserGrantee(userID),
			Permission:    inv.Permission,
		}
		_ = m.store.CreateGrant(ctx, grant)
		if inv.GroupID != nil {
			_ = m.groups.AddMember(ctx, *inv.GroupID, userID)
		}
		delete(m.invitations, id)
		applied++
	}
	return applied, nil
}

type mockCalendars struct {
	calendars    map[uuid.UUID]*CalendarInfo
	subCalendars map[uuid.UUID]uuid.UUID
}

func newMockCalendars() *mockCalendars {
	return &mockCalendars{calendars: map[uuid.UUID]*CalendarInfo{}, subCalendars: map[uuid.UUID]uuid.UUID{}}
}

func (m *mockCalendars) CalendarInfo(_ context.Context, id uuid.UUID) (*CalendarInfo, error) {
	return m.calendars[id], nil
}

func (m *mockCalendars) SubCalendarExists(_ context.Context, calendarID, subCalendarID uuid.UUID) (bool, error) {
	return m.subCalendars[subCalendarID] == calendarID, nil
}

var _ = ginkgo.Describe("Sharing service", func() {
	var (
		store     *mockStore
		groups    *mockGroups
		users     *mockUsers
		pending   *mockPending
		calendars *mockCalendars
		svc       *Service
		ctx       context.Context

		calendarID uuid.UUID
		ownerID    uuid.UUID
		owner      *internal.AuthUser
	)

	ginkgo.BeforeEach(func() {
		groups = newMockGroups()
		store = newMockStore(groups)
		users = newMockUsers()
		pending = newMockPending(store, groups)
		calendars = newMockCalendars()
		resolver := access.NewResolver(store, logger.LoggerWrapper())
		svc = NewService(store, groups, users, pending, calendars, resolver, nil, logger.LoggerWrapper())
		ctx = context.Background()

		calendarID = uuid.New()
		ownerID = uuid.New()
		store.owners[calendarID] = ownerID
		calendars.calendars[calendarID] = &CalendarInfo{
			ID:                 calendarID,
			OwnerID:            ownerID,
			Title:              "Team Calendar",
			Language:           "en",
			EmailNotifications: false,
		}
		owner = &internal.AuthUser{ID: ownerID, Email: "owner@example.com", Name: "Owner"}
	})

	ginkgo.Describe("RequireCalendarAdmin", func() {
		ginkgo.It("returns NotFound for a missing calendar", func() {
			_, err := svc.RequireCalendarAdmin(ctx, uuid.New(), owner)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrCalendarNotFound))
		})

		ginkgo.It("lets the owner through", func() {
			cal, err := svc.RequireCalendarAdmin(ctx, calendarID, owner)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cal.Title).To(gomega.Equal("Team Calendar"))
		})

		ginkgo.It("lets a global admin and the superadmin through", func() {
			admin := &internal.AuthUser{ID: uuid.New(), IsAdmin: true}
			_, err := svc.RequireCalendarAdmin(ctx, calendarID, admin)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			super := &internal.AuthUser{ID: uuid.New(), IsSuperadmin: true}
			_, err = svc.RequireCalendarAdmin(ctx, calendarID, super)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("accepts a caller whose grants resolve to administrator", func() {
			someone := uuid.New()
			store.grants[uuid.New()] = &access.Grant{
				ID:         uuid.New(),
				CalendarID: calendarID,
				Grantee:    access.UserGrantee(someone),
				Permission: permission.Administrator,
			}

			_, err := svc.RequireCalendarAdmin(ctx, calendarID, &internal.AuthUser{ID: someone})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("rejects anything short of administrator", func() {
			someone := uuid.New()
			g := &access.Grant{
				ID:         uuid.New(),
				CalendarID: calendarID,
				Grantee:    access.UserGrantee(someone),
				Permission: permission.Modify,
			}
			store.grants[g.ID] = g

			_, err := svc.RequireCalendarAdmin(ctx, calendarID, &internal.AuthUser{ID: someone})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientAccess))
		})

		ginkgo.It("rejects an anonymous caller", func() {
			_, err := svc.RequireCalendarAdmin(ctx, calendarID, nil)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNotAuthenticated))
		})
	})

	ginkgo.Describe("Invite", func() {
		ginkgo.It("grants directly when the email belongs to a registered user", func() {
			invitee := &user.User{ID: uuid.New(), Email: "bob@example.com", Name: "Bob"}
			users.users[invitee.ID] = invitee

			result, err := svc.Invite(ctx, calendarID, owner, InviteDTO{
				Email:      "Bob@Example.com",
				Permission: permission.ReadOnly,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.UserExists).To(gomega.BeTrue())
			gomega.Expect(result.GrantID).NotTo(gomega.BeNil())
			gomega.Expect(result.InvitationID).To(gomega.BeNil())

			grant, err := store.FindGrant(ctx, calendarID, access.UserGrantee(invitee.ID), nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(grant).NotTo(gomega.BeNil())
			gomega.Expect(grant.Permission).To(gomega.Equal(permission.ReadOnly))
		})

		ginkgo.It("conflicts when the user already holds a grant for the same scope", func() {
			invitee := &user.User{ID: uuid.New(), Email: "bob@example.com"}
			users.users[invitee.ID] = invitee

			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "bob@example.com", Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "bob@example.com", Permission: permission.Modify})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAccessExists))
		})

		ginkgo.It("allows a second grant for a different sub-calendar scope", func() {
			invitee := &user.User{ID: uuid.New(), Email: "bob@example.com"}
			users.users[invitee.ID] = invitee
			subID := uuid.New()
			calendars.subCalendars[subID] = calendarID

			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "bob@example.com", Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "bob@example.com", Permission: permission.Modify, SubCalendarID: &subID})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("stores a pending invitation for an unknown email", func() {
			result, err := svc.Invite(ctx, calendarID, owner, InviteDTO{
				Email:      "new@example.com",
				Permission: permission.AddOnly,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.UserExists).To(gomega.BeFalse())
			gomega.Expect(result.InvitationID).NotTo(gomega.BeNil())

			inv, err := pending.Find(ctx, calendarID, "new@example.com")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(inv).NotTo(gomega.BeNil())
			gomega.Expect(inv.Permission).To(gomega.Equal(permission.AddOnly))
		})

		ginkgo.It("conflicts on a second invitation for the same email", func() {
			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "new@example.com", Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "new@example.com", Permission: permission.Modify})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvitationExists))
		})

		ginkgo.It("does not report an email attempt when notifications are disabled", func() {
			result, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "new@example.com", Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.EmailSent).To(gomega.BeFalse())
		})

		ginkgo.It("rejects an unknown permission value", func() {
			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "new@example.com", Permission: "owner"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("ApplyPendingOnRegistration", func() {
		ginkgo.It("converts every pending invitation into a grant and clears them", func() {
			otherCal := uuid.New()
			store.owners[otherCal] = uuid.New()
			calendars.calendars[otherCal] = &CalendarInfo{ID: otherCal, OwnerID: store.owners[otherCal]}

			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{Email: "new@example.com", Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			otherOwner := &internal.AuthUser{ID: store.owners[otherCal]}
			_, err = svc.Invite(ctx, otherCal, otherOwner, InviteDTO{Email: "new@example.com", Permission: permission.Modify})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			newUserID := uuid.New()
			n, err := svc.ApplyPendingOnRegistration(ctx, newUserID, "new@example.com")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(n).To(gomega.Equal(2))

			gomega.Expect(pending.invitations).To(gomega.BeEmpty())
			g1, _ := store.FindGrant(ctx, calendarID, access.UserGrantee(newUserID), nil)
			g2, _ := store.FindGrant(ctx, otherCal, access.UserGrantee(newUserID), nil)
			gomega.Expect(g1).NotTo(gomega.BeNil())
			gomega.Expect(g2).NotTo(gomega.BeNil())
		})

		ginkgo.It("joins the invitation's bound group", func() {
			g := &group.Group{ID: uuid.New(), CalendarID: calendarID, Name: "Staff"}
			groups.groups[g.ID] = g

			_, err := svc.Invite(ctx, calendarID, owner, InviteDTO{
				Email:      "new@example.com",
				Permission: permission.ReadOnly,
				GroupID:    &g.ID,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			newUserID := uuid.New()
			_, err = svc.ApplyPendingOnRegistration(ctx, newUserID, "new@example.com")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			member, err := groups.IsMember(ctx, g.ID, newUserID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(member).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Access links", func() {
		ginkgo.It("creates a link with exactly one grant row", func() {
			link, err := svc.CreateLink(ctx, calendarID, owner, CreateLinkDTO{
				Label:      "Public view",
				Permission: permission.ReadOnlyNoDetails,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(link.Token).NotTo(gomega.BeEmpty())
			gomega.Expect(link.Active).To(gomega.BeTrue())
			gomega.Expect(link.Permission).To(gomega.Equal(permission.ReadOnlyNoDetails))

			grants, err := store.ListGrantsForGrantee(ctx, calendarID, access.LinkGrantee(link.ID))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(grants).To(gomega.HaveLen(1))
		})

		ginkgo.It("rejects binding a group from another calendar", func() {
			foreign := &group.Group{ID: uuid.New(), CalendarID: uuid.New(), Name: "Elsewhere"}
			groups.groups[foreign.ID] = foreign

			_, err := svc.CreateLink(ctx, calendarID, owner, CreateLinkDTO{
				Permission: permission.ReadOnly,
				GroupID:    &foreign.ID,
			})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrGroupNotFound))
		})

		ginkgo.It("updates permission through the grant row", func() {
			link, err := svc.CreateLink(ctx, calendarID, owner, CreateLinkDTO{Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			newPerm := permission.Modify
			updated, err := svc.UpdateLink(ctx, calendarID, link.ID, owner, UpdateLinkDTO{Permission: &newPerm})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Permission).To(gomega.Equal(permission.Modify))
		})

		ginkgo.It("deletes the grant rows together with the link", func() {
			link, err := svc.CreateLink(ctx, calendarID, owner, CreateLinkDTO{Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(svc.DeleteLink(ctx, calendarID, link.ID, owner)).To(gomega.Succeed())

			grants, err := store.ListGrantsForGrantee(ctx, calendarID, access.LinkGrantee(link.ID))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(grants).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Group grants", func() {
		ginkgo.It("upserts per (calendar, group, scope)", func() {
			g := &group.Group{ID: uuid.New(), CalendarID: calendarID, Name: "Staff"}
			groups.groups[g.ID] = g

			first, err := svc.UpsertGroupGrant(ctx, calendarID, g.ID, owner, permission.ReadOnly, nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			second, err := svc.UpsertGroupGrant(ctx, calendarID, g.ID, owner, permission.Modify, nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(second.ID).To(gomega.Equal(first.ID))
			gomega.Expect(second.Permission).To(gomega.Equal(permission.Modify))
		})
	})

	ginkgo.Describe("DeleteGroup", func() {
		ginkgo.It("removes the group's grants before the group", func() {
			g := &group.Group{ID: uuid.New(), CalendarID: calendarID, Name: "Staff"}
			groups.groups[g.ID] = g
			_, err := svc.UpsertGroupGrant(ctx, calendarID, g.ID, owner, permission.ReadOnly, nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(svc.DeleteGroup(ctx, calendarID, g.ID, owner)).To(gomega.Succeed())

			grant, err := store.FindGrant(ctx, calendarID, access.GroupGrantee(g.ID), nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(grant).To(gomega.BeNil())
			gomega.Expect(groups.groups).NotTo(gomega.HaveKey(g.ID))
		})
	})

	ginkgo.Describe("MyPermission", func() {
		ginkgo.It("resolves the administrator for the owner", func() {
			p, err := svc.MyPermission(ctx, calendarID, access.ForUser(ownerID), nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.Administrator))
		})

		ginkgo.It("resolves NoAccess for a stranger without error", func() {
			p, err := svc.MyPermission(ctx, calendarID, access.ForUser(uuid.New()), nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("resolves a link token for an anonymous caller", func() {
			link, err := svc.CreateLink(ctx, calendarID, owner, CreateLinkDTO{Permission: permission.ReadOnly})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			p, err := svc.MyPermission(ctx, calendarID, access.Anonymous(link.Token), nil)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.ReadOnly))
		})

		ginkgo.It("returns NotFound for a missing calendar", func() {
			_, err := svc.MyPermission(ctx, uuid.New(), access.ForUser(ownerID), nil)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrCalendarNotFound))
		})
	})
})
