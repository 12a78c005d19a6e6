package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AccountStore captures the persistence operations used by operator tooling.
type AccountStore interface {
	CreateUser(ctx context.Context, creds UserCredentials) error
	GetUserByUsername(ctx context.Context, username string) (UserCredentials, error)
	UpdateUser(ctx context.Context, creds UserCredentials) error
	EnsureUser(ctx context.Context, creds UserCredentials) (bool, error)
}

// AccountService performs trusted account maintenance: seeding the initial
// administrator at start-up and the operator CLI commands. It performs no
// principal checks.
type AccountService struct {
	users       AccountStore
	hasher      PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAccountService wires dependencies for the account service.
func NewAccountService(users AccountStore, hasher PasswordHasher, idGenerator func() string, now func() time.Time) *AccountService {
	return NewAccountServiceWithLogger(users, hasher, idGenerator, now, nil)
}

// NewAccountServiceWithLogger wires dependencies for the account service with a specified logger.
func NewAccountServiceWithLogger(users AccountStore, hasher PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AccountService {
	if hasher == nil {
		hasher = NewArgon2Hasher(DefaultArgon2idParams, 1)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{users: users, hasher: hasher, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// EnsureAdmin creates an administrator named username with mustChangePassword
// set, unless an account with that username already exists. It reports whether
// an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	if s == nil || s.users == nil {
		return false, fmt.Errorf("account store not configured")
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin seeding failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "admin seeding finished", "created", created)
	}()

	creds, err := s.newCredentials(ctx, username, password, RoleAdmin)
	if err != nil {
		return false, err
	}
	return s.users.EnsureUser(ctx, creds)
}

// CreateAdmin creates an additional administrator who must change the password at first login.
func (s *AccountService) CreateAdmin(ctx context.Context, username, password string) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("account store not configured")
	}

	logger := s.loggerWith(ctx, "CreateAdmin", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "admin created")
	}()

	creds, err := s.newCredentials(ctx, username, password, RoleAdmin)
	if err != nil {
		return err
	}
	return s.users.CreateUser(ctx, creds)
}

// ResetPassword sets a new password for any account and forces a change at next login.
func (s *AccountService) ResetPassword(ctx context.Context, username, password string) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("account store not configured")
	}

	logger := s.loggerWith(ctx, "ResetPassword", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset")
	}()

	if vErr := validateInput(credentialsShape{Username: username, Password: password}, "Invalid input."); vErr != nil {
		return vErr
	}

	creds, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return err
	}
	creds.PasswordHash = hash
	creds.User.MustChangePassword = true
	creds.User.UpdatedAt = s.now()
	return s.users.UpdateUser(ctx, creds)
}

func (s *AccountService) newCredentials(ctx context.Context, username, password string, role Role) (UserCredentials, error) {
	username = strings.TrimSpace(username)
	if vErr := validateInput(credentialsShape{Username: username, Password: password}, "Invalid input."); vErr != nil {
		return UserCredentials{}, vErr
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return UserCredentials{}, err
	}

	id := s.idGenerator()
	if id == "" {
		return UserCredentials{}, errors.New("id generator returned an empty id")
	}

	now := s.now()
	return UserCredentials{
		User: User{
			ID:                 id,
			Username:           username,
			Role:               role,
			MustChangePassword: true,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		PasswordHash: hash,
	}, nil
}
