package rest

import (
	"database/sql"
	"net/http"
	"strings"

	"log/slog"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/auth"
	"github.com/frahmantamala/calendar-sharing/internal/calendar"
	"github.com/frahmantamala/calendar-sharing/internal/event"
	"github.com/frahmantamala/calendar-sharing/internal/sharing"
	"github.com/frahmantamala/calendar-sharing/internal/transport/middleware"
	"github.com/frahmantamala/calendar-sharing/internal/transport/swagger"
	"github.com/frahmantamala/calendar-sharing/internal/user"
)

type Handlers struct {
	Auth     *auth.Handler
	AuthMW   *auth.Middleware
	User     *user.Handler
	Calendar *calendar.Handler
	Sharing  *sharing.Handler
	Event    *event.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, cfg *internal.Config, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CSRF("/v1/auth"))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// uploaded attachments are served straight off disk
	uploadPrefix := strings.TrimRight(cfg.Storage.PublicBaseURL, "/") + "/"
	router.Handle(uploadPrefix+"*", http.StripPrefix(uploadPrefix,
		http.FileServer(http.Dir(cfg.Storage.UploadDir))))

	router.Route("/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.Refresh)
			ar.Post("/logout", h.Auth.Logout)
			ar.Post("/forgot-password", h.Auth.ForgotPassword)
			ar.Post("/reset-password", h.Auth.ResetPassword)
			ar.Post("/verify-email", h.Auth.VerifyEmail)
		})

		r.Post("/users", h.User.Register)
		r.Group(func(pr chi.Router) {
			pr.Use(h.AuthMW.RequireAuth)
			pr.Get("/users/me", h.User.Me)
		})

		r.Route("/admin/users", func(ar chi.Router) {
			ar.Use(h.AuthMW.RequireAuth)
			ar.Get("/", h.User.ListUsers)
			ar.Patch("/{id}/admin", h.User.SetAdmin)
			ar.Post("/{id}/ban", h.User.Ban)
			ar.Delete("/{id}/ban", h.User.Unban)
			ar.Delete("/{id}", h.User.DeleteUser)
		})

		r.Route("/calendars", func(cr chi.Router) {
			cr.Group(func(pr chi.Router) {
				pr.Use(h.AuthMW.RequireAuth)
				pr.Post("/", h.Calendar.Create)
				pr.Get("/", h.Calendar.ListMine)
			})

			cr.Group(func(or chi.Router) {
				or.Use(h.AuthMW.OptionalAuth)
				or.Get("/slug/{slug}", h.Calendar.GetBySlug)
				or.Get("/{calendarID}", h.Calendar.Get)
				or.Get("/{calendarID}/permission", h.Sharing.MyPermission)
				or.Get("/{calendarID}/sub-calendars", h.Calendar.ListSubCalendars)
				or.Get("/{calendarID}/tags", h.Calendar.ListTags)
				or.Get("/{calendarID}/events", h.Event.List)
				or.Post("/{calendarID}/events", h.Event.Create)
			})

			cr.Group(func(pr chi.Router) {
				pr.Use(h.AuthMW.RequireAuth)

				pr.Patch("/{calendarID}", h.Calendar.Update)
				pr.Delete("/{calendarID}", h.Calendar.Delete)

				pr.Post("/{calendarID}/sub-calendars", h.Calendar.CreateSubCalendar)
				pr.Patch("/{calendarID}/sub-calendars/{subCalendarID}", h.Calendar.UpdateSubCalendar)
				pr.Delete("/{calendarID}/sub-calendars/{subCalendarID}", h.Calendar.DeleteSubCalendar)

				pr.Post("/{calendarID}/tags", h.Calendar.CreateTag)
				pr.Delete("/{calendarID}/tags/{tagID}", h.Calendar.DeleteTag)

				pr.Post("/{calendarID}/links", h.Sharing.CreateLink)
				pr.Get("/{calendarID}/links", h.Sharing.ListLinks)
				pr.Post("/{calendarID}/links/claim", h.Sharing.ClaimLink)
				pr.Patch("/{calendarID}/links/{linkID}", h.Sharing.UpdateLink)
				pr.Delete("/{calendarID}/links/{linkID}", h.Sharing.DeleteLink)

				pr.Get("/{calendarID}/access", h.Sharing.ListAccess)
				pr.Post("/{calendarID}/access", h.Sharing.CreateAccess)
				pr.Patch("/{calendarID}/access/{accessID}", h.Sharing.UpdateAccess)
				pr.Delete("/{calendarID}/access/{accessID}", h.Sharing.DeleteAccess)

				pr.Post("/{calendarID}/groups", h.Sharing.CreateGroup)
				pr.Get("/{calendarID}/groups", h.Sharing.ListGroups)
				pr.Delete("/{calendarID}/groups/{groupID}", h.Sharing.DeleteGroup)
				pr.Put("/{calendarID}/groups/{groupID}/grant", h.Sharing.UpsertGroupGrant)
				pr.Post("/{calendarID}/groups/{groupID}/members", h.Sharing.AddGroupMember)
				pr.Delete("/{calendarID}/groups/{groupID}/members/{userID}", h.Sharing.RemoveGroupMember)

				pr.Post("/{calendarID}/invitations", h.Sharing.Invite)
				pr.Get("/{calendarID}/invitations", h.Sharing.ListPending)
				pr.Delete("/{calendarID}/invitations/{invitationID}", h.Sharing.DeletePending)
			})
		})

		r.Route("/events", func(er chi.Router) {
			er.Use(h.AuthMW.OptionalAuth)

			er.Get("/{eventID}", h.Event.Get)
			er.Patch("/{eventID}", h.Event.Update)
			er.Delete("/{eventID}", h.Event.Delete)
			er.Get("/{eventID}/translation", h.Event.GetTranslation)

			er.Get("/{eventID}/signups", h.Event.ListSignups)
			er.Post("/{eventID}/signups", h.Event.CreateSignup)
			er.Delete("/signups/{signupID}", h.Event.DeleteSignup)

			er.Get("/{eventID}/comments", h.Event.ListComments)
			er.Post("/{eventID}/comments", h.Event.CreateComment)
			er.Get("/comments/{commentID}/translation", h.Event.GetCommentTranslation)
			er.Delete("/comments/{commentID}", h.Event.DeleteComment)

			er.Get("/{eventID}/attachments", h.Event.ListAttachments)
			er.Post("/{eventID}/attachments", h.Event.UploadAttachment)
			er.Delete("/attachments/{attachmentID}", h.Event.DeleteAttachment)
		})
	})
}
