package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/transport"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Admin   *AdminService
}

func NewHandler(svc *Service, admin *AdminService) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Admin:       admin,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u.ToOut(false))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return
	}

	u, err := h.Service.GetByID(r.Context(), authUser.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToOut(authUser.IsSuperadmin))
}

func (h *Handler) requireSuperadmin(w http.ResponseWriter, r *http.Request) (*internal.AuthUser, bool) {
	authUser, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrNotAuthenticated)
		return nil, false
	}
	if !authUser.IsSuperadmin {
		h.WriteAppError(w, internal.ErrAdminRequired)
		return nil, false
	}
	return authUser, true
}

func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSuperadmin(w, r); !ok {
		return
	}

	limit, offset := transport.Pagination(r, 50)
	users, err := h.Admin.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	out := make([]UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToOut(false))
	}
	h.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSuperadmin(w, r); !ok {
		return
	}
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Admin.SetAdmin(r.Context(), userID, dto.IsAdmin); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSuperadmin(w, r); !ok {
		return
	}
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var dto BanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Admin.Ban(r.Context(), userID, dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSuperadmin(w, r); !ok {
		return
	}
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Admin.Unban(r.Context(), userID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireSuperadmin(w, r)
	if !ok {
		return
	}
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	if caller.ID == userID {
		h.WriteError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.Admin.DeleteUser(r.Context(), userID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
