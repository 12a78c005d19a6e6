package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", true))
		issuer := &sessionIssuerStub{}
		svc := NewAuthService(store, issuer, &stubHasher{}, func() time.Time { return stubReference })

		result, err := svc.Login(context.Background(), LoginParams{Username: "alice", Password: "secret"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if result.Role != RoleStudent {
			t.Fatalf("expected student role, got %q", result.Role)
		}
		if !result.MustChangePassword {
			t.Fatalf("expected mustChangePassword to be reported")
		}
		if len(issuer.created) != 1 || issuer.created[0].UserID != "student-1" {
			t.Fatalf("expected one session for student-1, got %#v", issuer.created)
		}
		if result.Session.ID != issuer.created[0].ID {
			t.Fatalf("expected issued session in result, got %#v", result.Session)
		}
	})

	t.Run("returns the same error for every credential failure", func(t *testing.T) {
		t.Parallel()

		cases := map[string]LoginParams{
			"unknown user":     {Username: "nobody", Password: "secret"},
			"wrong password":   {Username: "alice", Password: "wrong-secret"},
			"short password":   {Username: "alice", Password: "abc"},
			"non alphanumeric": {Username: "al ice", Password: "secret"},
			"missing username": {Username: "", Password: "secret"},
		}

		for name, params := range cases {
			params := params
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", false))
				issuer := &sessionIssuerStub{}
				svc := NewAuthService(store, issuer, &stubHasher{}, nil)

				_, err := svc.Login(context.Background(), params)
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Fatalf("expected ErrInvalidCredentials, got %v", err)
				}
				if len(issuer.created) != 0 {
					t.Fatalf("expected no session to be issued")
				}
			})
		}
	})

	t.Run("spends a comparison for unknown usernames", func(t *testing.T) {
		t.Parallel()

		hasher := &stubHasher{}
		svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, hasher, nil)

		_, err := svc.Login(context.Background(), LoginParams{Username: "ghost", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if hasher.calls() != 1 {
			t.Fatalf("expected one verify call, got %d", hasher.calls())
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk on fire")
		store := newUserStoreStub()
		store.getErr = boom
		svc := NewAuthService(store, &sessionIssuerStub{}, &stubHasher{}, nil)

		_, err := svc.Login(context.Background(), LoginParams{Username: "alice", Password: "secret"})
		if !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	issuer := &sessionIssuerStub{}
	svc := NewAuthService(newUserStoreStub(), issuer, &stubHasher{}, nil)

	if err := svc.Logout(context.Background(), "sid-1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout without a session failed: %v", err)
	}
	if len(issuer.destroyed) != 2 || issuer.destroyed[0] != "sid-1" {
		t.Fatalf("unexpected destroyed sessions %#v", issuer.destroyed)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Parallel()

	later := stubReference.Add(time.Hour)

	t.Run("replaces the hash and clears the forced change flag", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", true))
		svc := NewAuthService(store, &sessionIssuerStub{}, &stubHasher{}, func() time.Time { return later })

		err := svc.ChangePassword(context.Background(), ChangePasswordParams{Principal: studentPrincipal, OldPassword: "secret", NewPassword: "better-secret"})
		if err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}

		updated := store.get("student-1")
		if updated.PasswordHash != "hash:better-secret" {
			t.Fatalf("expected new hash, got %q", updated.PasswordHash)
		}
		if updated.User.MustChangePassword {
			t.Fatalf("expected mustChangePassword to be cleared")
		}
		if !updated.User.UpdatedAt.Equal(later) {
			t.Fatalf("expected UpdatedAt %v, got %v", later, updated.User.UpdatedAt)
		}
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, &stubHasher{}, nil)
		err := svc.ChangePassword(context.Background(), ChangePasswordParams{OldPassword: "secret", NewPassword: "better-secret"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("rejects short passwords before checking the old one", func(t *testing.T) {
		t.Parallel()

		hasher := &stubHasher{}
		store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", true))
		svc := NewAuthService(store, &sessionIssuerStub{}, hasher, nil)

		err := svc.ChangePassword(context.Background(), ChangePasswordParams{Principal: studentPrincipal, OldPassword: "secret", NewPassword: "12345"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.Message != "Password too short." {
			t.Fatalf("unexpected message %q", vErr.Message)
		}
		if hasher.calls() != 0 {
			t.Fatalf("expected no verify call, got %d", hasher.calls())
		}
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", true))
		svc := NewAuthService(store, &sessionIssuerStub{}, &stubHasher{}, nil)

		err := svc.ChangePassword(context.Background(), ChangePasswordParams{Principal: studentPrincipal, OldPassword: "nope", NewPassword: "better-secret"})
		if !errors.Is(err, ErrIncorrectPassword) {
			t.Fatalf("expected ErrIncorrectPassword, got %v", err)
		}
		if len(store.updates) != 0 {
			t.Fatalf("expected no update")
		}
	})

	t.Run("treats a vanished user as unauthenticated", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, &stubHasher{}, nil)
		err := svc.ChangePassword(context.Background(), ChangePasswordParams{Principal: studentPrincipal, OldPassword: "secret", NewPassword: "better-secret"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestAuthService_WhoAmI(t *testing.T) {
	t.Parallel()

	t.Run("anonymous callers are not logged in", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, &stubHasher{}, nil)
		result, err := svc.WhoAmI(context.Background(), Principal{})
		if err != nil {
			t.Fatalf("WhoAmI failed: %v", err)
		}
		if result.LoggedIn {
			t.Fatalf("expected loggedIn=false, got %#v", result)
		}
	})

	t.Run("reads the forced change flag from the store", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", true))
		svc := NewAuthService(store, &sessionIssuerStub{}, &stubHasher{}, nil)

		result, err := svc.WhoAmI(context.Background(), studentPrincipal)
		if err != nil {
			t.Fatalf("WhoAmI failed: %v", err)
		}
		want := WhoAmIResult{LoggedIn: true, Role: RoleStudent, Username: "alice", MustChangePassword: true}
		if result != want {
			t.Fatalf("expected %#v, got %#v", want, result)
		}

		if err := svc.ChangePassword(context.Background(), ChangePasswordParams{Principal: studentPrincipal, OldPassword: "secret", NewPassword: "better-secret"}); err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}
		result, err = svc.WhoAmI(context.Background(), studentPrincipal)
		if err != nil {
			t.Fatalf("WhoAmI failed: %v", err)
		}
		if result.MustChangePassword {
			t.Fatalf("expected flag to be cleared after password change")
		}
	})

	t.Run("deleted users are reported as logged out", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, &stubHasher{}, nil)
		result, err := svc.WhoAmI(context.Background(), studentPrincipal)
		if err != nil {
			t.Fatalf("WhoAmI failed: %v", err)
		}
		if result.LoggedIn {
			t.Fatalf("expected loggedIn=false for missing user")
		}
	})
}

type countingHasher struct {
	*Argon2Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(ctx context.Context, hashed, password string) error {
	h.verifies.Add(1)
	return h.Argon2Hasher.Verify(ctx, hashed, password)
}

func TestAuthService_UnknownUserComparisonSurvivesCancelledFirstLogin(t *testing.T) {
	t.Parallel()

	hasher := &countingHasher{Argon2Hasher: NewArgon2Hasher(testArgon2Params, 1)}
	svc := NewAuthService(newUserStoreStub(), &sessionIssuerStub{}, hasher, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Login(cancelled, LoginParams{Username: "ghost", Password: "secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	before := hasher.verifies.Load()
	if _, err := svc.Login(context.Background(), LoginParams{Username: "ghost", Password: "secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := hasher.verifies.Load() - before; got != 1 {
		t.Fatalf("expected one verify call for the second login, got %d", got)
	}
	if svc.dummyHash == "" {
		t.Fatal("expected dummy hash to be built")
	}
}

func TestAuthService_LoginLogLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := newUserStoreStub(newCredentials("student-1", "alice", RoleStudent, "secret", false))
	svc := NewAuthServiceWithLogger(store, &sessionIssuerStub{}, &stubHasher{}, nil, logger)

	if _, err := svc.Login(context.Background(), LoginParams{Username: "alice", Password: "wrong-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "level=ERROR") {
		t.Fatalf("rejected login should not log at error level: %s", out)
	}
	if !strings.Contains(out, "login rejected") || !strings.Contains(out, "error_kind=invalid_credentials") {
		t.Fatalf("expected rejection to be logged, got %s", out)
	}

	buf.Reset()
	store.getErr = errors.New("disk on fire")
	if _, err := svc.Login(context.Background(), LoginParams{Username: "alice", Password: "secret"}); err == nil {
		t.Fatal("expected store failure")
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected store failure at error level, got %s", buf.String())
	}
}
