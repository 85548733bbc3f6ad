package calendar

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/transport"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) authUser(r *http.Request) *internal.AuthUser {
	if u, ok := internal.UserFromContext(r.Context()); ok {
		return u
	}
	return nil
}

func callerOf(r *http.Request) access.Caller {
	caller := access.Caller{}
	if u, ok := internal.UserFromContext(r.Context()); ok {
		id := u.ID
		caller.UserID = &id
	}
	if token, ok := internal.LinkTokenFromContext(r.Context()); ok {
		caller.LinkToken = token
	}
	return caller
}

func (h *Handler) calendarIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "calendarID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid calendar ID")
		return uuid.Nil, false
	}
	return id, true
}

type calendarView struct {
	*Calendar
	MyPermission permission.Permission `json:"my_permission"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cal, err := h.Service.Create(r.Context(), h.authUser(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, calendarView{Calendar: cal, MyPermission: permission.Administrator})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	cals, err := h.Service.ListMine(r.Context(), h.authUser(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cals)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	cal, p, err := h.Service.Get(r.Context(), calendarID, callerOf(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, calendarView{Calendar: cal, MyPermission: p})
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		h.WriteError(w, http.StatusBadRequest, "missing slug")
		return
	}

	cal, p, err := h.Service.GetBySlug(r.Context(), slug, callerOf(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, calendarView{Calendar: cal, MyPermission: p})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cal, err := h.Service.Update(r.Context(), calendarID, h.authUser(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cal)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), calendarID, h.authUser(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) CreateSubCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	var dto SubCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sc, err := h.Service.CreateSubCalendar(r.Context(), calendarID, h.authUser(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sc)
}

func (h *Handler) ListSubCalendars(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	subs, err := h.Service.SubCalendars(r.Context(), calendarID, callerOf(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, subs)
}

func (h *Handler) UpdateSubCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}
	subID, err := uuid.Parse(chi.URLParam(r, "subCalendarID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sub-calendar ID")
		return
	}

	var dto SubCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sc, err := h.Service.UpdateSubCalendar(r.Context(), calendarID, subID, h.authUser(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) DeleteSubCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}
	subID, err := uuid.Parse(chi.URLParam(r, "subCalendarID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sub-calendar ID")
		return
	}

	if err := h.Service.DeleteSubCalendar(r.Context(), calendarID, subID, h.authUser(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	var dto struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.CreateTag(r.Context(), calendarID, h.authUser(r), dto.Name, dto.Color)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}

	tags, err := h.Service.Tags(r.Context(), calendarID, callerOf(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tags)
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.calendarIDParam(w, r)
	if !ok {
		return
	}
	tagID, err := uuid.Parse(chi.URLParam(r, "tagID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid tag ID")
		return
	}

	if err := h.Service.DeleteTag(r.Context(), calendarID, tagID, h.authUser(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
