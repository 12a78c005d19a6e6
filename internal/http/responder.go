package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/study-portal/internal/application"
)

var (
	errBadRequestBody = errors.New("Invalid request body.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	r.writeJSON(ctx, w, status, messageResponse{Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates an application error into its status and
// client message. Unknown errors never leak their text.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		message := vErr.Message
		if message == "" {
			message = "Invalid input."
		}
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: message, Errors: vErr.FieldErrors})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeMessage(ctx, w, http.StatusBadRequest, "Invalid credentials.")
	case errors.Is(err, application.ErrIncorrectPassword):
		r.writeMessage(ctx, w, http.StatusBadRequest, "Old password incorrect.")
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeMessage(ctx, w, http.StatusBadRequest, "Username exists.")
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeMessage(ctx, w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, application.ErrForbidden):
		r.writeMessage(ctx, w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, application.ErrStudentNotFound):
		r.writeMessage(ctx, w, http.StatusNotFound, "Student not found.")
	case errors.Is(err, application.ErrFileMissing):
		r.writeMessage(ctx, w, http.StatusNotFound, "File missing")
	case errors.Is(err, application.ErrNotFound):
		r.writeMessage(ctx, w, http.StatusNotFound, "Not found")
	case errors.Is(err, context.DeadlineExceeded):
		r.writeMessage(ctx, w, http.StatusGatewayTimeout, statusMessage(http.StatusGatewayTimeout))
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeMessage(ctx, w, http.StatusInternalServerError, statusMessage(http.StatusInternalServerError))
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusGatewayTimeout:
		return "Request timed out"
	case http.StatusServiceUnavailable:
		return "Service unavailable"
	default:
		return "Internal server error"
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errBadRequestBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadRequestBody
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
