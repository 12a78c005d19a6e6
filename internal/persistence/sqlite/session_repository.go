package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/study-portal/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if strings.TrimSpace(session.ID) == "" || session.UserID == "" || session.Role == "" {
		return persistence.ErrConstraintViolation
	}
	if session.ExpiresAt.IsZero() {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (id, user_id, role, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Role,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetSession returns the session with the given id regardless of expiry.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var session persistence.Session
	var expiresAt, createdAt string
	err := r.helper.QueryRow(ctx,
		`SELECT id, user_id, role, expires_at, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &session.Role, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if session.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// DeleteSession removes a session. Deleting an unknown id is not an error.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return r.mapper.MapError(err)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference)); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", r.mapper.MapError(err))
	}
	return nil
}
