package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/study-portal/internal/persistence"
)

const userColumns = `id, username, password_hash, role, must_change_password, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user. A taken username yields persistence.ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if err := validateUser(user); err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.MustChangePassword,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser rewrites the mutable fields of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if err := validateUser(user); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET username = ?, password_hash = ?, role = ?, must_change_password = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.MustChangePassword,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByUsername retrieves a user by exact username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if username == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return r.scanUser(row)
}

// ListUsersByRole returns users holding role ordered by creation time.
func (r *UserRepository) ListUsersByRole(ctx context.Context, role string) ([]persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY created_at ASC, rowid ASC`

	rows, err := r.helper.Query(ctx, query, role)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// EnsureUser inserts user only when no account with the same username exists.
func (r *UserRepository) EnsureUser(ctx context.Context, user persistence.User) (bool, error) {
	if err := validateUser(user); err != nil {
		return false, err
	}

	created := false
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		if err := r.helper.QueryRowTx(ctx, tx, `SELECT COUNT(*) FROM users WHERE username = ?`, user.Username).Scan(&count); err != nil {
			return r.mapper.MapError(err)
		}
		if count > 0 {
			return nil
		}

		query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
		if _, err := r.helper.ExecTx(ctx, tx, query,
			user.ID,
			user.Username,
			user.PasswordHash,
			user.Role,
			user.MustChangePassword,
			formatTime(user.CreatedAt),
			formatTime(user.UpdatedAt),
		); err != nil {
			return r.mapper.MapError(err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.MustChangePassword,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func validateUser(user persistence.User) error {
	if user.ID == "" || user.Username == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if user.Role != "student" && user.Role != "admin" {
		return persistence.ErrConstraintViolation
	}
	return nil
}
