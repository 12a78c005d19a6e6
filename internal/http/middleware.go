package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/study-portal/internal/application"
)

// SessionLookup resolves a session id to a live session.
type SessionLookup interface {
	LookupSession(ctx context.Context, sessionID string) (application.Session, bool, error)
}

// LoadSession resolves the session cookie once per request and attaches the
// principal and session id to the context. Missing, tampered and expired
// cookies leave the request anonymous. Store failures are recorded in the
// context: public routes keep working and gated routes answer 500.
func LoadSession(sessions SessionLookup, cookies *SessionCookies, logger *slog.Logger) func(http.Handler) http.Handler {
	base := defaultLogger(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := cookies.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithSessionID(r.Context(), sessionID)
			session, found, err := sessions.LookupSession(ctx, sessionID)
			if err != nil {
				handlerLogger(ctx, base, "LoadSession", "").ErrorContext(ctx, "session lookup failed", "error", err, "error_kind", application.ErrorKind(err))
				ctx = ContextWithSessionError(ctx, err)
			}
			if found {
				ctx = ContextWithPrincipal(ctx, session.Principal())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccess rejects requests whose principal does not meet level. A missing
// session is reported as 401 before the role is considered, and a failed
// session lookup as a server error.
func RequireAccess(level application.AccessLevel, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := SessionErrorFromContext(r.Context()); err != nil {
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			if err := application.Authorize(principalFrom(r), level); err != nil {
				handlerLogger(r.Context(), responder.logger, "RequireAccess", "").InfoContext(r.Context(), "access denied", "error_kind", application.ErrorKind(err))
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated admits any request carrying a live session.
func RequireAuthenticated(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireAccess(application.AccessAuthenticated, logger)
}

// RequireAdmin admits only administrator sessions.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireAccess(application.AccessAdmin, logger)
}

// RequestLogger attaches a request scoped logger carrying a sequential request id
// and logs each request's outcome.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		next.ServeHTTP(w, r)
	})
}
