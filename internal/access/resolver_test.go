package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

func TestAccess(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Access Resolver Suite")
}

// mockReader holds grants in memory and applies the same scope filter the
// SQL repository does.
type mockReader struct {
	owners map[uuid.UUID]uuid.UUID
	grants []*Grant
	links  []*Link
	// group memberships: userID -> group ids
	memberships map[uuid.UUID][]uuid.UUID
}

func newMockReader() *mockReader {
	return &mockReader{
		owners:      map[uuid.UUID]uuid.UUID{},
		memberships: map[uuid.UUID][]uuid.UUID{},
	}
}

func (m *mockReader) CalendarOwnerID(_ context.Context, calendarID uuid.UUID) (uuid.UUID, error) {
	return m.owners[calendarID], nil
}

func scopeMatches(g *Grant, subCalendarID *uuid.UUID) bool {
	if g.SubCalendarID == nil {
		return true
	}
	return subCalendarID != nil && *g.SubCalendarID == *subCalendarID
}

func (m *mockReader) UserPermissions(_ context.Context, calendarID, userID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	groups := map[uuid.UUID]bool{}
	for _, gid := range m.memberships[userID] {
		groups[gid] = true
	}
	var perms []permission.Permission
	for _, g := range m.grants {
		if g.CalendarID != calendarID || !scopeMatches(g, subCalendarID) {
			continue
		}
		switch g.Grantee.Kind {
		case GranteeUser:
			if g.Grantee.ID == userID {
				perms = append(perms, g.Permission)
			}
		case GranteeGroup:
			if groups[g.Grantee.ID] {
				perms = append(perms, g.Permission)
			}
		}
	}
	return perms, nil
}

func (m *mockReader) ActiveLinkByToken(_ context.Context, calendarID uuid.UUID, token string) (*Link, error) {
	for _, l := range m.links {
		if l.CalendarID == calendarID && l.Token == token && l.Active {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockReader) LinkPermissions(_ context.Context, linkID uuid.UUID, subCalendarID *uuid.UUID) ([]permission.Permission, error) {
	var perms []permission.Permission
	for _, g := range m.grants {
		if g.Grantee.Kind == GranteeLink && g.Grantee.ID == linkID && scopeMatches(g, subCalendarID) {
			perms = append(perms, g.Permission)
		}
	}
	return perms, nil
}

var _ = ginkgo.Describe("Resolver", func() {
	var (
		repo     *mockReader
		resolver *Resolver
		ctx      context.Context

		calendarID uuid.UUID
		ownerID    uuid.UUID
		userID     uuid.UUID
		groupID    uuid.UUID
		subCal1    uuid.UUID
		subCal2    uuid.UUID
	)

	addUserGrant := func(p permission.Permission, scope *uuid.UUID) {
		repo.grants = append(repo.grants, &Grant{
			ID: uuid.New(), CalendarID: calendarID, SubCalendarID: scope,
			Grantee: UserGrantee(userID), Permission: p,
		})
	}

	ginkgo.BeforeEach(func() {
		repo = newMockReader()
		resolver = NewResolver(repo, logger.LoggerWrapper())
		ctx = context.Background()

		calendarID = uuid.New()
		ownerID = uuid.New()
		userID = uuid.New()
		groupID = uuid.New()
		subCal1 = uuid.New()
		subCal2 = uuid.New()
		repo.owners[calendarID] = ownerID
	})

	ginkgo.Context("owner bypass", func() {
		ginkgo.It("returns administrator for the owner with no grant rows", func() {
			p, err := resolver.Resolve(ctx, calendarID, ForUser(ownerID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.Administrator))
		})

		ginkgo.It("returns administrator for the owner even with a conflicting lower grant", func() {
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: UserGrantee(ownerID), Permission: permission.ReadOnly,
			})
			p, err := resolver.Resolve(ctx, calendarID, ForUser(ownerID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.Administrator))
		})
	})

	ginkgo.Context("no applicable grants", func() {
		ginkgo.It("returns no_access as a value, not an error", func() {
			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("returns no_access for an empty caller", func() {
			p, err := resolver.Resolve(ctx, calendarID, Caller{}, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})
	})

	ginkgo.Context("scope narrowing", func() {
		ginkgo.It("applies a calendar-wide grant everywhere", func() {
			addUserGrant(permission.ReadOnly, nil)

			for _, scope := range []*uuid.UUID{nil, &subCal1, &subCal2} {
				p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), scope)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(p).To(gomega.Equal(permission.ReadOnly))
			}
		})

		ginkgo.It("does not apply a grant scoped to one sub-calendar on another", func() {
			addUserGrant(permission.Modify, &subCal1)

			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), &subCal2)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("does not apply a scoped grant to the unscoped case", func() {
			addUserGrant(permission.Modify, &subCal1)

			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("applies a scoped grant on its exact sub-calendar", func() {
			addUserGrant(permission.AddOnly, &subCal1)

			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), &subCal1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.AddOnly))
		})
	})

	ginkgo.Context("combining sources", func() {
		ginkgo.It("takes the maximum of a direct grant and a group grant", func() {
			repo.memberships[userID] = []uuid.UUID{groupID}
			addUserGrant(permission.ReadOnly, nil)
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: GroupGrantee(groupID), Permission: permission.Modify,
			})

			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.Modify))
		})

		ginkgo.It("combines user grants with a simultaneously presented link token", func() {
			addUserGrant(permission.ReadOnlyNoDetails, nil)
			link := &Link{ID: uuid.New(), CalendarID: calendarID, Token: "tok-abc", Active: true}
			repo.links = append(repo.links, link)
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: LinkGrantee(link.ID), Permission: permission.AddOnly,
			})

			caller := Caller{UserID: &userID, LinkToken: "tok-abc"}
			p, err := resolver.Resolve(ctx, calendarID, caller, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.AddOnly))
		})

		ginkgo.It("ignores a group grant for a non-member", func() {
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: GroupGrantee(groupID), Permission: permission.Modify,
			})

			p, err := resolver.Resolve(ctx, calendarID, ForUser(userID), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})
	})

	ginkgo.Context("link edge cases", func() {
		var link *Link

		ginkgo.BeforeEach(func() {
			link = &Link{ID: uuid.New(), CalendarID: calendarID, Token: "tok-xyz", Active: true}
			repo.links = append(repo.links, link)
		})

		ginkgo.It("resolves a valid active link's grant", func() {
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: LinkGrantee(link.ID), Permission: permission.ReadOnly,
			})

			p, err := resolver.Resolve(ctx, calendarID, Anonymous("tok-xyz"), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.ReadOnly))
		})

		ginkgo.It("contributes nothing for an inactive link even with a valid token", func() {
			link.Active = false
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: LinkGrantee(link.ID), Permission: permission.Administrator,
			})

			p, err := resolver.Resolve(ctx, calendarID, Anonymous("tok-xyz"), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("contributes nothing for a link without a grant row", func() {
			p, err := resolver.Resolve(ctx, calendarID, Anonymous("tok-xyz"), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})

		ginkgo.It("contributes nothing for a token bound to a different calendar", func() {
			otherCal := uuid.New()
			repo.owners[otherCal] = uuid.New()
			repo.grants = append(repo.grants, &Grant{
				ID: uuid.New(), CalendarID: calendarID,
				Grantee: LinkGrantee(link.ID), Permission: permission.ReadOnly,
			})

			p, err := resolver.Resolve(ctx, otherCal, Anonymous("tok-xyz"), nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.NoAccess))
		})
	})
})
