package calendar

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

func TestCalendar(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Calendar Suite")
}

type mockCalRepo struct {
	calendars    map[uuid.UUID]*Calendar
	subCalendars map[uuid.UUID]*SubCalendar
	tags         map[uuid.UUID]*Tag
	deletions    *[]string
}

func newMockCalRepo(deletions *[]string) *mockCalRepo {
	return &mockCalRepo{
		calendars:    map[uuid.UUID]*Calendar{},
		subCalendars: map[uuid.UUID]*SubCalendar{},
		tags:         map[uuid.UUID]*Tag{},
		deletions:    deletions,
	}
}

func (m *mockCalRepo) Create(_ context.Context, c *Calendar) error {
	m.calendars[c.ID] = c
	return nil
}

func (m *mockCalRepo) ByID(_ context.Context, id uuid.UUID) (*Calendar, error) {
	return m.calendars[id], nil
}

func (m *mockCalRepo) BySlug(_ context.Context, slug string) (*Calendar, error) {
	for _, c := range m.calendars {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCalRepo) ForOwner(_ context.Context, ownerID uuid.UUID) ([]*Calendar, error) {
	var out []*Calendar
	for _, c := range m.calendars {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCalRepo) Update(_ context.Context, c *Calendar) error {
	m.calendars[c.ID] = c
	return nil
}

func (m *mockCalRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.calendars, id)
	*m.deletions = append(*m.deletions, "calendar")
	return nil
}

func (m *mockCalRepo) CreateSubCalendar(_ context.Context, sc *SubCalendar) error {
	m.subCalendars[sc.ID] = sc
	return nil
}

func (m *mockCalRepo) SubCalendarByID(_ context.Context, id uuid.UUID) (*SubCalendar, error) {
	return m.subCalendars[id], nil
}

func (m *mockCalRepo) SubCalendars(_ context.Context, calendarID uuid.UUID) ([]*SubCalendar, error) {
	var out []*SubCalendar
	for _, sc := range m.subCalendars {
		if sc.CalendarID == calendarID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *mockCalRepo) UpdateSubCalendar(_ context.Context, sc *SubCalendar) error {
	m.subCalendars[sc.ID] = sc
	return nil
}

func (m *mockCalRepo) DeleteSubCalendar(_ context.Context, id uuid.UUID) error {
	delete(m.subCalendars, id)
	return nil
}

func (m *mockCalRepo) DeleteSubCalendars(_ context.Context, calendarID uuid.UUID) error {
	for id, sc := range m.subCalendars {
		if sc.CalendarID == calendarID {
			delete(m.subCalendars, id)
		}
	}
	*m.deletions = append(*m.deletions, "sub_calendars")
	return nil
}

func (m *mockCalRepo) CreateTag(_ context.Context, t *Tag) error {
	m.tags[t.ID] = t
	return nil
}

func (m *mockCalRepo) TagByID(_ context.Context, id uuid.UUID) (*Tag, error) {
	return m.tags[id], nil
}

func (m *mockCalRepo) Tags(_ context.Context, calendarID uuid.UUID) ([]*Tag, error) {
	var out []*Tag
	for _, t := range m.tags {
		if t.CalendarID == calendarID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockCalRepo) DeleteTag(_ context.Context, id uuid.UUID) error {
	delete(m.tags, id)
	return nil
}

func (m *mockCalRepo) DeleteTags(_ context.Context, calendarID uuid.UUID) error {
	for id, t := range m.tags {
		if t.CalendarID == calendarID {
			delete(m.tags, id)
		}
	}
	*m.deletions = append(*m.deletions, "tags")
	return nil
}

// mockAccessReader backs the resolver with ownership only plus optional
// direct grants.
type mockAccessReader struct {
	repo   *mockCalRepo
	grants map[uuid.UUID]map[uuid.UUID]permission.Permission
}

func (m *mockAccessReader) CalendarOwnerID(_ context.Context, calendarID uuid.UUID) (uuid.UUID, error) {
	if c, ok := m.repo.calendars[calendarID]; ok {
		return c.OwnerID, nil
	}
	return uuid.Nil, nil
}

func (m *mockAccessReader) UserPermissions(_ context.Context, calendarID, userID uuid.UUID, _ *uuid.UUID) ([]permission.Permission, error) {
	if byUser, ok := m.grants[calendarID]; ok {
		if p, ok := byUser[userID]; ok {
			return []permission.Permission{p}, nil
		}
	}
	return nil, nil
}

func (m *mockAccessReader) ActiveLinkByToken(_ context.Context, _ uuid.UUID, _ string) (*access.Link, error) {
	return nil, nil
}

func (m *mockAccessReader) LinkPermissions(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]permission.Permission, error) {
	return nil, nil
}

type mockPurger struct {
	deletions *[]string
	label     string
}

func (m *mockPurger) DeleteForCalendar(_ context.Context, _ uuid.UUID) error {
	*m.deletions = append(*m.deletions, m.label)
	return nil
}

func (m *mockPurger) DeleteCalendarSharing(_ context.Context, _ uuid.UUID) error {
	*m.deletions = append(*m.deletions, m.label)
	return nil
}

var _ = ginkgo.Describe("Calendar service", func() {
	var (
		repo      *mockCalRepo
		reader    *mockAccessReader
		svc       *Service
		ctx       context.Context
		deletions []string

		owner *internal.AuthUser
	)

	ginkgo.BeforeEach(func() {
		deletions = nil
		repo = newMockCalRepo(&deletions)
		reader = &mockAccessReader{repo: repo, grants: map[uuid.UUID]map[uuid.UUID]permission.Permission{}}
		resolver := access.NewResolver(reader, logger.LoggerWrapper())
		events := &mockPurger{deletions: &deletions, label: "events"}
		share := &mockPurger{deletions: &deletions, label: "sharing"}
		svc = NewService(repo, resolver, events, share, logger.LoggerWrapper())
		ctx = context.Background()

		owner = &internal.AuthUser{ID: uuid.New(), Email: "owner@example.com"}
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("derives a slug from the title when none is given", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Team Standup Calendar"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cal.Slug).To(gomega.Equal("team-standup-calendar"))
		})

		ginkgo.It("suffixes a taken slug", func() {
			_, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Team"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			second, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Team"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(second.Slug).To(gomega.Equal("team-2"))
		})

		ginkgo.It("rejects an invalid explicit slug", func() {
			_, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Team", Slug: "Not Valid!"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("defaults timezone and language", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Team"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cal.Timezone).To(gomega.Equal("UTC"))
			gomega.Expect(cal.Language).To(gomega.Equal("en"))
		})
	})

	ginkgo.Describe("Get", func() {
		ginkgo.It("hides the calendar from callers with no access", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Private"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, _, err = svc.Get(ctx, cal.ID, access.ForUser(uuid.New()))
			gomega.Expect(err).To(gomega.MatchError(internal.ErrCalendarNotFound))
		})

		ginkgo.It("returns the calendar with the resolved permission", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Shared"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			reader.grants[cal.ID] = map[uuid.UUID]permission.Permission{}
			viewer := uuid.New()
			reader.grants[cal.ID][viewer] = permission.ReadOnly

			got, p, err := svc.Get(ctx, cal.ID, access.ForUser(viewer))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(cal.ID))
			gomega.Expect(p).To(gomega.Equal(permission.ReadOnly))
		})

		ginkgo.It("lets a limited reader through", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Busy view"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			viewer := uuid.New()
			reader.grants[cal.ID] = map[uuid.UUID]permission.Permission{viewer: permission.ReadOnlyNoDetails}

			_, p, err := svc.Get(ctx, cal.ID, access.ForUser(viewer))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(permission.ReadOnlyNoDetails))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("cascades in dependency order", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Doomed"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(svc.Delete(ctx, cal.ID, owner)).To(gomega.Succeed())
			gomega.Expect(deletions).To(gomega.Equal([]string{
				"events", "sub_calendars", "tags", "sharing", "calendar",
			}))
		})

		ginkgo.It("refuses a non-administrator", func() {
			cal, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "Protected"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			stranger := &internal.AuthUser{ID: uuid.New()}
			err = svc.Delete(ctx, cal.ID, stranger)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientAccess))
		})
	})

	ginkgo.Describe("DeleteOwnedCalendars", func() {
		ginkgo.It("cascades every calendar of the owner", func() {
			_, err := svc.Create(ctx, owner, CreateCalendarDTO{Title: "One"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = svc.Create(ctx, owner, CreateCalendarDTO{Title: "Two"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(svc.DeleteOwnedCalendars(ctx, owner.ID)).To(gomega.Succeed())
			gomega.Expect(repo.calendars).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Slugify", func() {
		ginkgo.It("collapses punctuation and whitespace into hyphens", func() {
			gomega.Expect(Slugify("Hello,  World!")).To(gomega.Equal("hello-world"))
			gomega.Expect(Slugify("--Already--Hyphenated--")).To(gomega.Equal("already-hyphenated"))
		})
	})
})
