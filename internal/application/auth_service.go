package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CredentialStore exposes the user credential operations required by the auth service.
type CredentialStore interface {
	GetUser(ctx context.Context, id string) (UserCredentials, error)
	GetUserByUsername(ctx context.Context, username string) (UserCredentials, error)
	UpdateUser(ctx context.Context, creds UserCredentials) error
}

// SessionIssuer creates and destroys sessions on behalf of the auth service.
type SessionIssuer interface {
	CreateSession(ctx context.Context, userID string, role Role) (Session, error)
	DestroySession(ctx context.Context, sessionID string) error
}

// dummyPassword feeds the comparison performed for unknown usernames.
const dummyPassword = "portal-dummy-password"

// AuthService coordinates login, logout, password changes, and identity lookups.
type AuthService struct {
	credentials CredentialStore
	sessions    SessionIssuer
	hasher      PasswordHasher
	now         func() time.Time
	logger      *slog.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionIssuer, hasher PasswordHasher, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, hasher, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionIssuer, hasher PasswordHasher, now func() time.Time, logger *slog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewArgon2Hasher(DefaultArgon2idParams, 1)
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
		hasher:      hasher,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login validates credentials and issues a session. Every failing check, from
// input shape to hash mismatch, returns ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil || s.sessions == nil {
		err = fmt.Errorf("auth dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "Login", "username", params.Username)
	defer func() {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.InfoContext(ctx, "login rejected", "error_kind", ErrorKind(err))
			return
		}
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.Session.UserID,
			"role", result.Role,
		).InfoContext(ctx, "login succeeded")
	}()

	if vErr := validateInput(credentialsShape{Username: params.Username, Password: params.Password}, ""); vErr != nil {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.burnComparison(ctx, params.Password)
			err = ErrInvalidCredentials
		}
		return
	}

	if verr := s.hasher.Verify(ctx, creds.PasswordHash, params.Password); verr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return
		}
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.sessions.CreateSession(ctx, creds.User.ID, creds.User.Role)
	if err != nil {
		return
	}

	result = LoginResult{
		Session:            session,
		Role:               creds.User.Role,
		MustChangePassword: creds.User.MustChangePassword,
	}
	return
}

// burnComparison spends one hash comparison so unknown usernames cost the same
// as wrong passwords.
func (s *AuthService) burnComparison(ctx context.Context, password string) {
	hash := s.dummyPasswordHash(ctx)
	if hash == "" {
		return
	}
	_ = s.hasher.Verify(ctx, hash, password)
}

// dummyPasswordHash builds the comparison target on first use. The hash is
// detached from the caller's cancellation and retried until it succeeds.
func (s *AuthService) dummyPasswordHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			s.loggerWith(ctx, "Login").WarnContext(ctx, "dummy hash unavailable", "error", err)
			return ""
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

// Logout destroys the session if one is given. It always succeeds unless the
// store fails.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session issuer not configured")
	}
	logger := s.loggerWith(ctx, "Logout", "session_present", sessionID != "")
	if err := s.sessions.DestroySession(ctx, sessionID); err != nil {
		logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "logged out")
	return nil
}

// ChangePassword replaces the caller's password after checking the current one
// and clears the forced change flag.
func (s *AuthService) ChangePassword(ctx context.Context, params ChangePasswordParams) (err error) {
	if s == nil || s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}

	logger := s.loggerWith(ctx, "ChangePassword", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password change failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password changed")
	}()

	if err = Authorize(params.Principal, AccessAuthenticated); err != nil {
		return
	}

	if vErr := validateInput(newPasswordShape{NewPassword: params.NewPassword}, "Password too short."); vErr != nil {
		err = vErr
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}

	if verr := s.hasher.Verify(ctx, creds.PasswordHash, params.OldPassword); verr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return
		}
		err = ErrIncorrectPassword
		return
	}

	var hash string
	hash, err = s.hasher.Hash(ctx, params.NewPassword)
	if err != nil {
		return
	}

	creds.PasswordHash = hash
	creds.User.MustChangePassword = false
	creds.User.UpdatedAt = s.now()
	if err = s.credentials.UpdateUser(ctx, creds); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}
	return nil
}

// WhoAmI describes the caller. Anonymous callers, and sessions whose user no
// longer exists, report LoggedIn=false.
func (s *AuthService) WhoAmI(ctx context.Context, principal Principal) (WhoAmIResult, error) {
	if s == nil || s.credentials == nil {
		return WhoAmIResult{}, fmt.Errorf("credential store not configured")
	}
	if !principal.Authenticated() {
		return WhoAmIResult{LoggedIn: false}, nil
	}

	creds, err := s.credentials.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return WhoAmIResult{LoggedIn: false}, nil
		}
		s.loggerWith(ctx, "WhoAmI", "principal_id", principal.UserID).ErrorContext(ctx, "identity lookup failed", "error", err, "error_kind", ErrorKind(err))
		return WhoAmIResult{}, err
	}

	return WhoAmIResult{
		LoggedIn:           true,
		Role:               principal.Role,
		Username:           creds.User.Username,
		MustChangePassword: creds.User.MustChangePassword,
	}, nil
}
