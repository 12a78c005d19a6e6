package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/study-portal/internal/application"
)

type authService interface {
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ChangePassword(ctx context.Context, params application.ChangePasswordParams) error
	WhoAmI(ctx context.Context, principal application.Principal) (application.WhoAmIResult, error)
}

type loginRecorder interface {
	ObserveLogin(outcome string)
}

type AuthHandler struct {
	service   authService
	cookies   *SessionCookies
	recorder  loginRecorder
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler wires the auth endpoints. recorder may be nil.
func NewAuthHandler(service authService, cookies *SessionCookies, recorder loginRecorder, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, cookies: cookies, recorder: recorder, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) observe(outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveLogin(outcome)
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		// Malformed bodies get the same answer as every other failed login.
		h.observe("invalid")
		h.responder.handleServiceError(r.Context(), w, application.ErrInvalidCredentials)
		return
	}

	logger := h.log(r.Context(), "Login", "username", req.Username)

	result, err := h.service.Login(r.Context(), application.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			h.observe("invalid")
		} else {
			h.observe("error")
		}
		logger.InfoContext(r.Context(), "login rejected", "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if err := h.cookies.Write(w, result.Session.ID); err != nil {
		h.observe("error")
		logger.ErrorContext(r.Context(), "failed to encode session cookie", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, errors.New(statusMessage(http.StatusInternalServerError)))
		return
	}

	if previous, ok := SessionIDFromContext(r.Context()); ok && previous != result.Session.ID {
		if err := h.service.Logout(r.Context(), previous); err != nil {
			logger.WarnContext(r.Context(), "failed to destroy replaced session", "error", err)
		}
	}

	h.observe("success")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Role:               string(result.Role),
		MustChangePassword: result.MustChangePassword,
	})
}

// Logout handles POST /auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())
	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		h.log(r.Context(), "Logout").ErrorContext(r.Context(), "failed to destroy session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.cookies.Clear(w)
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Logged out.")
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	err := h.service.ChangePassword(r.Context(), application.ChangePasswordParams{
		Principal:   principalFrom(r),
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Password changed.")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := SessionErrorFromContext(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.WhoAmI(r.Context(), principalFrom(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !result.LoggedIn {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, anonymousResponse{LoggedIn: false})
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meResponse{
		LoggedIn:           true,
		Role:               string(result.Role),
		MustChangePassword: result.MustChangePassword,
		Username:           result.Username,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Role               string `json:"role"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type meResponse struct {
	LoggedIn           bool   `json:"loggedIn"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"mustChangePassword"`
	Username           string `json:"username"`
}

type anonymousResponse struct {
	LoggedIn bool `json:"loggedIn"`
}
