package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/study-portal/internal/application"
)

type studentService interface {
	ListStudents(ctx context.Context, principal application.Principal) ([]application.User, error)
	CreateStudent(ctx context.Context, params application.CreateStudentParams) (application.User, error)
	ResetStudentPassword(ctx context.Context, params application.ResetStudentPasswordParams) error
}

type StudentHandler struct {
	service   studentService
	responder responder
	logger    *slog.Logger
}

func NewStudentHandler(service studentService, logger *slog.Logger) *StudentHandler {
	base := defaultLogger(logger)
	return &StudentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	students, err := h.service.ListStudents(r.Context(), principalFrom(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := make([]studentDTO, 0, len(students))
	for _, s := range students {
		response = append(response, toStudentDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	user, err := h.service.CreateStudent(r.Context(), application.CreateStudentParams{
		Principal: principalFrom(r),
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "StudentHandler", "Create", "user_id", user.ID).InfoContext(r.Context(), "student account created")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Student created.")
}

func (h *StudentHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	err := h.service.ResetStudentPassword(r.Context(), application.ResetStudentPasswordParams{
		Principal:   principalFrom(r),
		Username:    req.Username,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Password reset.")
}

type createStudentRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
}

type studentDTO struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"mustChangePassword"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
}

func toStudentDTO(user application.User) studentDTO {
	return studentDTO{
		ID:                 user.ID,
		Username:           user.Username,
		Role:               string(user.Role),
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          formatTimestamp(user.CreatedAt),
		UpdatedAt:          formatTimestamp(user.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
