package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// StudentDirectory captures the persistence operations needed to manage students.
type StudentDirectory interface {
	CreateUser(ctx context.Context, creds UserCredentials) error
	GetUserByUsername(ctx context.Context, username string) (UserCredentials, error)
	UpdateUser(ctx context.Context, creds UserCredentials) error
	ListUsersByRole(ctx context.Context, role Role) ([]User, error)
}

// StudentService orchestrates validation, authorization, and persistence for student accounts.
type StudentService struct {
	users       StudentDirectory
	hasher      PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStudentService wires dependencies for the student service.
func NewStudentService(users StudentDirectory, hasher PasswordHasher, idGenerator func() string, now func() time.Time) *StudentService {
	return NewStudentServiceWithLogger(users, hasher, idGenerator, now, nil)
}

// NewStudentServiceWithLogger wires dependencies for the student service with a specified logger.
func NewStudentServiceWithLogger(users StudentDirectory, hasher PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StudentService {
	if hasher == nil {
		hasher = NewArgon2Hasher(DefaultArgon2idParams, 1)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StudentService{users: users, hasher: hasher, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *StudentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StudentService", operation, attrs...)
}

// ListStudents returns every student account for administrators.
func (s *StudentService) ListStudents(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("student directory not configured")
	}
	if err := Authorize(principal, AccessAdmin); err != nil {
		return nil, err
	}

	students, err := s.users.ListUsersByRole(ctx, RoleStudent)
	if err != nil {
		s.loggerWith(ctx, "ListStudents", "principal_id", principal.UserID).ErrorContext(ctx, "failed to list students", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if students == nil {
		students = []User{}
	}
	return students, nil
}

// CreateStudent creates a student who must change the initial password at first login.
func (s *StudentService) CreateStudent(ctx context.Context, params CreateStudentParams) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("student directory not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateStudent", "principal_id", params.Principal.UserID, "username", params.Username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "student creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "student created")
	}()

	if err = Authorize(params.Principal, AccessAdmin); err != nil {
		return
	}
	if vErr := validateInput(credentialsShape{Username: params.Username, Password: params.Password}, "Invalid input."); vErr != nil {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetUserByUsername(ctx, params.Username); lookupErr == nil {
		err = ErrAlreadyExists
		return
	} else if !errors.Is(lookupErr, ErrNotFound) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hasher.Hash(ctx, params.Password)
	if err != nil {
		return
	}

	now := s.now()
	candidate := User{
		ID:                 s.idGenerator(),
		Username:           params.Username,
		Role:               RoleStudent,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err = s.users.CreateUser(ctx, UserCredentials{User: candidate, PasswordHash: hash}); err != nil {
		return
	}

	user = candidate
	return
}

// ResetStudentPassword sets a new password for a student and forces a change at next login.
func (s *StudentService) ResetStudentPassword(ctx context.Context, params ResetStudentPasswordParams) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("student directory not configured")
	}

	logger := s.loggerWith(ctx, "ResetStudentPassword", "principal_id", params.Principal.UserID, "username", params.Username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "student password reset failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "student password reset")
	}()

	if err = Authorize(params.Principal, AccessAdmin); err != nil {
		return
	}
	if vErr := validateInput(resetShape{Username: params.Username, NewPassword: params.NewPassword}, "Invalid input."); vErr != nil {
		err = vErr
		return
	}

	var creds UserCredentials
	creds, err = s.users.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrStudentNotFound
		}
		return
	}
	if creds.User.Role != RoleStudent {
		err = ErrStudentNotFound
		return
	}

	var hash string
	hash, err = s.hasher.Hash(ctx, params.NewPassword)
	if err != nil {
		return
	}

	creds.PasswordHash = hash
	creds.User.MustChangePassword = true
	creds.User.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, creds); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrStudentNotFound
		}
		return
	}
	return nil
}
