package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/infrastructure/security"
)

func newTestAuthService(t *testing.T) (*AuthService, *security.TokenCodec) {
	t.Helper()
	dir, err := security.NewDirectory(bcrypt.MinCost, security.DefaultPrincipals("user-pass", "admin-pass")...)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	codec := security.NewTokenCodec("secret", time.Hour)
	return NewAuthService(dir, codec, zerolog.Nop()), codec
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	svc, codec := newTestAuthService(t)

	cases := map[string]struct {
		password string
		caps     []domain.Capability
	}{
		"user":  {"user-pass", []domain.Capability{domain.CapGetUsers}},
		"admin": {"admin-pass", []domain.Capability{domain.CapGetUsers, domain.CapPostUsers, domain.CapPutUsers, domain.CapDeleteUsers}},
	}

	for name, tc := range cases {
		token, err := svc.Authenticate(context.Background(), name, tc.password)
		if err != nil {
			t.Fatalf("%s: authenticate failed: %v", name, err)
		}

		sub, err := codec.ExtractSubject(token)
		if err != nil || sub != name {
			t.Fatalf("%s: expected subject %q, got %q (%v)", name, name, sub, err)
		}
		caps, err := codec.ExtractCapabilities(token)
		if err != nil {
			t.Fatalf("%s: extract capabilities: %v", name, err)
		}
		if !reflect.DeepEqual(caps, tc.caps) {
			t.Fatalf("%s: expected %v, got %v", name, tc.caps, caps)
		}
	}
}

func TestAuthService_Authenticate_BadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)

	attempts := []struct{ username, password string }{
		{"user", "wrong"},
		{"admin", "user-pass"},
		{"ghost", "user-pass"},
		{"Admin", "admin-pass"},
		{"", ""},
	}
	for _, a := range attempts {
		token, err := svc.Authenticate(context.Background(), a.username, a.password)
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%q/%q: expected ErrInvalidCredentials, got %v", a.username, a.password, err)
		}
		if token != "" {
			t.Fatalf("expected empty token on failure")
		}
	}
}
