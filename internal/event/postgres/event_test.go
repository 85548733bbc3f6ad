package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	calendarpg "github.com/frahmantamala/calendar-sharing/internal/calendar/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/event"
)

func TestEventRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "EventRepository Suite")
}

var _ = Describe("EventRepository", func() {
	var (
		db      *gorm.DB
		repo    *EventRepository
		calRepo *calendarpg.CalendarRepository
		ctx     context.Context

		calendarID uuid.UUID
		subCalID   uuid.UUID
		tag1, tag2 uuid.UUID
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&EventModel{}, &EventTagModel{}, &SignupModel{},
			&CommentModel{}, &AttachmentModel{}, &calendarpg.TagModel{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewEventRepository(db)
		calRepo = calendarpg.NewCalendarRepository(db)
		ctx = context.Background()

		calendarID = uuid.New()
		subCalID = uuid.New()
		tag1 = uuid.New()
		tag2 = uuid.New()

		for _, id := range []uuid.UUID{tag1, tag2} {
			Expect(db.Exec(
				"INSERT INTO tags (id, calendar_id, name, color) VALUES (?, ?, ?, ?)",
				id, calendarID, "tag-"+id.String()[:8], "#3788d8",
			).Error).To(Succeed())
		}
	})

	newEvent := func(tagIDs ...uuid.UUID) *event.Event {
		now := time.Now().UTC().Truncate(time.Second)
		e := &event.Event{
			ID:            uuid.New(),
			CalendarID:    calendarID,
			SubCalendarID: subCalID,
			Title:         "Standup",
			StartsAt:      now,
			EndsAt:        now.Add(time.Hour),
			TagIDs:        tagIDs,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		Expect(repo.CreateEvent(ctx, e)).To(Succeed())
		return e
	}

	tagRows := func() int64 {
		var n int64
		Expect(db.Model(&EventTagModel{}).Count(&n).Error).To(Succeed())
		return n
	}

	Describe("event tags", func() {
		It("persists and loads tag ids with the event", func() {
			e := newEvent(tag1, tag2)

			got, err := repo.EventByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TagIDs).To(ConsistOf(tag1, tag2))

			list, err := repo.ListEvents(ctx, calendarID, event.Window{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].TagIDs).To(ConsistOf(tag1, tag2))
		})

		It("rewrites the join rows on update", func() {
			e := newEvent(tag1, tag2)

			e.TagIDs = []uuid.UUID{tag2}
			Expect(repo.UpdateEvent(ctx, e)).To(Succeed())

			got, err := repo.EventByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TagIDs).To(ConsistOf(tag2))
			Expect(tagRows()).To(Equal(int64(1)))
		})

		It("removes join rows when the event goes", func() {
			e := newEvent(tag1, tag2)

			Expect(repo.DeleteEvent(ctx, e.ID)).To(Succeed())
			Expect(tagRows()).To(BeZero())
		})

		It("removes join rows with the calendar cascade", func() {
			newEvent(tag1)
			newEvent(tag2)

			Expect(repo.DeleteForCalendar(ctx, calendarID)).To(Succeed())
			Expect(tagRows()).To(BeZero())
		})

		It("removes join rows when the tag itself is deleted", func() {
			e := newEvent(tag1, tag2)

			Expect(calRepo.DeleteTag(ctx, tag1)).To(Succeed())

			got, err := repo.EventByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TagIDs).To(ConsistOf(tag2))
		})

		It("removes join rows when all calendar tags are deleted", func() {
			newEvent(tag1, tag2)

			Expect(calRepo.DeleteTags(ctx, calendarID)).To(Succeed())
			Expect(tagRows()).To(BeZero())
		})
	})

	Describe("coordinates", func() {
		It("round-trips latitude and longitude", func() {
			lat, lng := 48.8584, 2.2945
			e := newEvent()
			e.Latitude = &lat
			e.Longitude = &lng
			Expect(repo.UpdateEvent(ctx, e)).To(Succeed())

			got, err := repo.EventByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.Latitude).To(Equal(48.8584))
			Expect(*got.Longitude).To(Equal(2.2945))
		})
	})

	Describe("FilterTags", func() {
		It("keeps calendar tags in input order and drops the rest", func() {
			foreign := uuid.New()
			kept, err := calRepo.FilterTags(ctx, calendarID, []uuid.UUID{tag2, foreign, tag1, tag2})
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(Equal([]uuid.UUID{tag2, tag1}))
		})
	})

	Describe("comment translations", func() {
		It("persists the cache on the comment row", func() {
			e := newEvent()
			c := &event.Comment{
				ID:        uuid.New(),
				EventID:   e.ID,
				Body:      "see you there",
				CreatedAt: time.Now().UTC(),
			}
			Expect(repo.CreateComment(ctx, c)).To(Succeed())

			cache := event.TranslationMap{"de": {"body": "bis dann"}}
			Expect(repo.SaveCommentTranslations(ctx, c.ID, cache)).To(Succeed())

			got, err := repo.CommentByID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Translations).To(Equal(cache))
		})
	})
})
