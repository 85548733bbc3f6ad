package event

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	"github.com/frahmantamala/calendar-sharing/internal/transport"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service       *Service
	MaxUploadSize int64
}

func NewHandler(svc *Service, maxUploadSize int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(lg),
		Service:       svc,
		MaxUploadSize: maxUploadSize,
	}
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

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func windowQuery(r *http.Request) (Window, error) {
	var window Window
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, err
		}
		window.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, err
		}
		window.To = &t
	}
	return window, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	var dto CreateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.Service.Create(r.Context(), callerOf(r), calendarID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := h.uuidParam(w, r, "calendarID")
	if !ok {
		return
	}

	window, err := windowQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "from and to must be RFC3339 timestamps")
		return
	}

	list, err := h.Service.List(r.Context(), callerOf(r), calendarID, window)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	e, err := h.Service.Get(r.Context(), callerOf(r), eventID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var dto UpdateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.Service.Update(r.Context(), callerOf(r), eventID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), callerOf(r), eventID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	lang := r.URL.Query().Get("lang")
	t, err := h.Service.GetOrTranslate(r.Context(), callerOf(r), eventID, lang)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListSignups(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	signups, err := h.Service.ListSignups(r.Context(), callerOf(r), eventID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, signups)
}

func (h *Handler) CreateSignup(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var dto CreateSignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sg, err := h.Service.CreateSignup(r.Context(), callerOf(r), eventID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sg)
}

func (h *Handler) DeleteSignup(w http.ResponseWriter, r *http.Request) {
	signupID, ok := h.uuidParam(w, r, "signupID")
	if !ok {
		return
	}

	if err := h.Service.DeleteSignup(r.Context(), callerOf(r), signupID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	comments, err := h.Service.ListComments(r.Context(), callerOf(r), eventID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var dto CreateCommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.Service.CreateComment(r.Context(), callerOf(r), eventID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCommentTranslation(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.uuidParam(w, r, "commentID")
	if !ok {
		return
	}

	lang := r.URL.Query().Get("lang")
	t, err := h.Service.GetOrTranslateComment(r.Context(), callerOf(r), commentID, lang)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.uuidParam(w, r, "commentID")
	if !ok {
		return
	}

	if err := h.Service.DeleteComment(r.Context(), callerOf(r), commentID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	attachments, err := h.Service.ListAttachments(r.Context(), callerOf(r), eventID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, attachments)
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > h.MaxUploadSize {
		h.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadSize+1))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if int64(len(data)) > h.MaxUploadSize {
		h.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	a, err := h.Service.UploadAttachment(r.Context(), callerOf(r), eventID,
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	attachmentID, ok := h.uuidParam(w, r, "attachmentID")
	if !ok {
		return
	}

	if err := h.Service.DeleteAttachment(r.Context(), callerOf(r), attachmentID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusNoContent, nil)
}
