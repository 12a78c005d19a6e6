package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/study-portal/internal/application"
	"github.com/example/study-portal/internal/logging"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	sessionIDContextKey  contextKey = "session_id"
	sessionErrContextKey contextKey = "session_error"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithSessionID records the id of the session resolved from the request cookie.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext extracts a session id previously associated with the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok
}

// ContextWithSessionError records a failed session lookup so gated routes can
// report it instead of treating the caller as anonymous.
func ContextWithSessionError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, sessionErrContextKey, err)
}

// SessionErrorFromContext returns the session lookup failure, if any.
func SessionErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(sessionErrContextKey).(error)
	return err
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func principalFrom(r *http.Request) application.Principal {
	principal, _ := PrincipalFromContext(r.Context())
	return principal
}
