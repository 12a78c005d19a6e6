package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/study-portal/internal/application"
)

type announcementService interface {
	Post(ctx context.Context, params application.PostAnnouncementParams) (application.Announcement, error)
	List(ctx context.Context) ([]application.AnnouncementView, error)
}

type AnnouncementHandler struct {
	service   announcementService
	responder responder
	logger    *slog.Logger
}

func NewAnnouncementHandler(service announcementService, logger *slog.Logger) *AnnouncementHandler {
	base := defaultLogger(logger)
	return &AnnouncementHandler{service: service, responder: newResponder(base), logger: base}
}

// Post handles POST /announcements/post.
func (h *AnnouncementHandler) Post(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req postAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	if _, err := h.service.Post(r.Context(), application.PostAnnouncementParams{
		Principal: principalFrom(r),
		Message:   req.Message,
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Announcement posted.")
}

// List handles GET /announcements. It is public.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	views, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := make([]announcementDTO, 0, len(views))
	for _, v := range views {
		response = append(response, toAnnouncementDTO(v))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

type postAnnouncementRequest struct {
	Message string `json:"message"`
}

type announcementDTO struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Creator   creatorDTO `json:"creator"`
	CreatedAt string     `json:"createdAt"`
}

// creatorDTO carries an empty username when the creating account no longer exists.
type creatorDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func toAnnouncementDTO(view application.AnnouncementView) announcementDTO {
	return announcementDTO{
		ID:      view.ID,
		Message: view.Message,
		Creator: creatorDTO{
			ID:       view.CreatorID,
			Username: view.CreatorUsername,
		},
		CreatedAt: formatTimestamp(view.CreatedAt),
	}
}
