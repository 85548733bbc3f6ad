package sharing

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/group"
	"github.com/frahmantamala/calendar-sharing/internal/permission"
	"github.com/frahmantamala/calendar-sharing/internal/transport"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Groups  *group.Service
}

func NewHandler(svc *Service, groups *group.Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Groups:      groups,
	}
}

func (h *Handler) caller(r *http.Request) *internal.AuthUser {
	if u, ok := internal.UserFromContext(r.Context()); ok {
		return u
	}
	return nil
}

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func subCalendarQuery(r *http.Request) *uuid.UUID {
	raw := r.URL.Query().Get("sub_calendar_id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// MyPermission reports the caller's effective permission, combining an
// authenticated session with an optional link token.
func (h *Handler) MyPermission(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	caller := access.Caller{}
	if u, authed := internal.UserFromContext(r.Context()); authed {
		id := u.ID
		caller.UserID = &id
	}
	if token, ok := internal.LinkTokenFromContext(r.Context()); ok {
		caller.LinkToken = token
	}

	p, err := h.Service.MyPermission(r.Context(), calendarID, caller, subCalendarQuery(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]permission.Permission{"permission": p})
}

func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	var dto CreateLinkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := h.Service.CreateLink(r.Context(), calendarID, h.caller(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, link)
}

func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	links, err := h.Service.ListLinks(r.Context(), calendarID, h.caller(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, links)
}

func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	linkID, ok := h.uuidParam(w, r, "linkID")
	if !ok {
		return
	}

	var dto UpdateLinkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.Service.UpdateLink(r.Context(), calendarID, linkID, h.caller(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	linkID, ok := h.uuidParam(w, r, "linkID")
	if !ok {
		return
	}

	if err := h.Service.DeleteLink(r.Context(), calendarID, linkID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListAccess(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	grants, err := h.Service.ListAccess(r.Context(), calendarID, h.caller(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, grants)
}

func (h *Handler) CreateAccess(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	var dto CreateAccessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	grant, err := h.Service.CreateAccess(r.Context(), calendarID, h.caller(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	grantID, ok := h.uuidParam(w, r, "accessID")
	if !ok {
		return
	}

	var dto struct {
		Permission permission.Permission `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.UpdateAccess(r.Context(), calendarID, grantID, h.caller(r), dto.Permission); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) DeleteAccess(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	grantID, ok := h.uuidParam(w, r, "accessID")
	if !ok {
		return
	}

	if err := h.Service.DeleteAccess(r.Context(), calendarID, grantID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	var dto struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Service.CreateGroup(r.Context(), calendarID, h.caller(r), dto.Name)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	groups, err := h.Service.ListGroups(r.Context(), calendarID, h.caller(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(w, r, "groupID")
	if !ok {
		return
	}

	if err := h.Service.DeleteGroup(r.Context(), calendarID, groupID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) UpsertGroupGrant(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(w, r, "groupID")
	if !ok {
		return
	}

	var dto struct {
		Permission    permission.Permission `json:"permission"`
		SubCalendarID *uuid.UUID            `json:"sub_calendar_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.Service.UpsertGroupGrant(r.Context(), calendarID, groupID, h.caller(r), dto.Permission, dto.SubCalendarID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(w, r, "groupID")
	if !ok {
		return
	}

	var dto struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.Service.RequireCalendarAdmin(r.Context(), calendarID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.Groups.AddMember(r.Context(), groupID, dto.UserID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(w, r, "groupID")
	if !ok {
		return
	}
	userID, ok := h.uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if _, err := h.Service.RequireCalendarAdmin(r.Context(), calendarID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.Groups.RemoveMember(r.Context(), groupID, userID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

// ClaimLink joins the group bound to a share link. The caller must be
// authenticated; the link must be active and carry a group binding.
func (h *Handler) ClaimLink(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	caller := h.caller(r)
	if caller == nil {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return
	}

	var dto struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Groups.ClaimLink(r.Context(), calendarID, dto.Token, caller.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	var dto InviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Invite(r.Context(), calendarID, h.caller(r), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	invitations, err := h.Service.ListPending(r.Context(), calendarID, h.caller(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, invitations)
}

func (h *Handler) DeletePending(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}
	invitationID, ok := h.uuidParam(w, r, "invitationID")
	if !ok {
		return
	}

	if err := h.Service.DeletePending(r.Context(), calendarID, invitationID, h.caller(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
