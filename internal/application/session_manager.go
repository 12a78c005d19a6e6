package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultSessionTTL is the fixed lifetime of a session measured from creation.
const DefaultSessionTTL = 2 * time.Hour

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SessionManager issues, resolves, and destroys server-side sessions. Expiry is
// absolute; lookups never extend a session.
type SessionManager struct {
	sessions       SessionRepository
	tokenGenerator func() string
	now            func() time.Time
	ttl            time.Duration
	logger         *slog.Logger
}

// NewSessionManager constructs a SessionManager with the provided dependencies.
func NewSessionManager(sessions SessionRepository, tokenGenerator func() string, now func() time.Time, ttl time.Duration) *SessionManager {
	return NewSessionManagerWithLogger(sessions, tokenGenerator, now, ttl, nil)
}

// NewSessionManagerWithLogger constructs a SessionManager with a specified logger.
func NewSessionManagerWithLogger(sessions SessionRepository, tokenGenerator func() string, now func() time.Time, ttl time.Duration, logger *slog.Logger) *SessionManager {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions:       sessions,
		tokenGenerator: tokenGenerator,
		now:            now,
		ttl:            ttl,
		logger:         defaultLogger(logger),
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, m.logger, "SessionManager", operation, attrs...)
}

// CreateSession prunes expired sessions and issues a new one for userID.
func (m *SessionManager) CreateSession(ctx context.Context, userID string, role Role) (session Session, err error) {
	if m == nil || m.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := m.loggerWith(ctx, "CreateSession", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("expires_at", session.ExpiresAt).InfoContext(ctx, "session created")
	}()

	if strings.TrimSpace(userID) == "" || !role.Valid() {
		err = fmt.Errorf("session requires a user and a valid role")
		return
	}

	now := m.now()
	if err = m.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}

	id := m.tokenGenerator()
	if id == "" {
		err = fmt.Errorf("session token generator returned an empty token")
		return
	}

	session = Session{
		ID:        id,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err = m.sessions.CreateSession(ctx, session); err != nil {
		session = Session{}
		return
	}
	return
}

// LookupSession resolves sessionID. Unknown and expired sessions report
// found=false with a nil error; only store failures are returned as errors.
func (m *SessionManager) LookupSession(ctx context.Context, sessionID string) (Session, bool, error) {
	if m == nil || m.sessions == nil {
		return Session{}, false, fmt.Errorf("session repository not configured")
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Session{}, false, nil
	}

	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}

	if !session.ExpiresAt.After(m.now()) {
		if derr := m.sessions.DeleteSession(ctx, sessionID); derr != nil {
			m.loggerWith(ctx, "LookupSession").WarnContext(ctx, "failed to delete expired session", "error", derr, "error_kind", ErrorKind(derr))
		}
		return Session{}, false, nil
	}
	return session, true, nil
}

// DestroySession removes sessionID. Destroying an unknown session succeeds.
func (m *SessionManager) DestroySession(ctx context.Context, sessionID string) error {
	if m == nil || m.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if err := m.sessions.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		m.loggerWith(ctx, "DestroySession").ErrorContext(ctx, "failed to destroy session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// PruneExpired deletes every session whose expiry is at or before now.
func (m *SessionManager) PruneExpired(ctx context.Context) error {
	if m == nil || m.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	return m.sessions.DeleteExpiredSessions(ctx, m.now())
}
