package application

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var testArgon2Params = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestArgon2Hasher(t *testing.T) {
	t.Parallel()

	hasher := NewArgon2Hasher(testArgon2Params, 2)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := hasher.Verify(ctx, hash, "secret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := hasher.Verify(ctx, hash, "Secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	other, err := hasher.Hash(ctx, "secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected distinct salts")
	}
}

func TestArgon2Hasher_CanceledContext(t *testing.T) {
	t.Parallel()

	hasher := NewArgon2Hasher(testArgon2Params, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := hasher.Hash(ctx, "secret"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword failed: %v", err)
	}
	if err := VerifyPassword(string(hashed), "secret"); err != nil {
		t.Fatalf("expected legacy hash to verify, got %v", err)
	}
	if err := VerifyPassword(string(hashed), "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPassword_MalformedHashes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hash string
		want error
	}{
		{"", ErrInvalidPasswordHash},
		{"plain", ErrInvalidPasswordHash},
		{"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidPasswordHash},
		{"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrIncompatiblePasswordVersion},
		{"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidPasswordHash},
		{"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidPasswordHash},
		{"$2a$04$short", ErrInvalidPasswordHash},
	}

	for _, tc := range cases {
		if err := VerifyPassword(tc.hash, "secret"); !errors.Is(err, tc.want) {
			t.Fatalf("VerifyPassword(%q): expected %v, got %v", tc.hash, tc.want, err)
		}
	}
}
