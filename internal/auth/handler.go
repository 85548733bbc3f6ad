package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/calendar-sharing/internal/transport"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Cookies *CookieWriter
}

func NewHandler(svc *Service, cookies *CookieWriter) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Cookies:     cookies,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("login failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.Cookies.SetAuthCookies(w, session, dto.RememberMe)
	h.WriteJSON(w, http.StatusOK, u.ToOut(false))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	u, session, err := h.Service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		h.Cookies.ClearAuthCookies(w)
		h.WriteAppError(w, err)
		return
	}

	h.Cookies.SetAuthCookies(w, session, false)
	h.WriteJSON(w, http.StatusOK, u.ToOut(false))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearAuthCookies(w)
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto ForgotPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Always succeeds, regardless of whether the address is known.
	_ = h.Service.ForgotPassword(r.Context(), dto.Email)
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the address is registered, a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ResetPassword(r.Context(), dto.Token, dto.Password); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var dto VerifyEmailDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), dto.Token); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
