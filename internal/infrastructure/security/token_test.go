package security

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magmutual/users-api/internal/core/domain"
)

var issuedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour).WithClock(fixedClock(issuedAt))
	caps := []domain.Capability{domain.CapPutUsers, domain.CapGetUsers, domain.CapDeleteUsers}

	token, err := codec.Generate("admin", caps)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	sub, err := codec.ExtractSubject(token)
	if err != nil || sub != "admin" {
		t.Fatalf("expected subject admin, got %q (%v)", sub, err)
	}

	got, err := codec.ExtractCapabilities(token)
	if err != nil {
		t.Fatalf("ExtractCapabilities: %v", err)
	}
	if !reflect.DeepEqual(got, caps) {
		t.Fatalf("expected %v, got %v", caps, got)
	}

	if !codec.Validate(token, "admin") {
		t.Fatalf("expected token to validate for admin")
	}
	if codec.Validate(token, "user") {
		t.Fatalf("token must not validate for another subject")
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour).WithClock(fixedClock(issuedAt))
	token, err := codec.Generate("user", []domain.Capability{domain.CapGetUsers})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	before := codec.WithClock(fixedClock(issuedAt.Add(59 * time.Minute)))
	if !before.Validate(token, "user") {
		t.Fatalf("expected token valid before expiry")
	}

	after := codec.WithClock(fixedClock(issuedAt.Add(2 * time.Hour)))
	if _, err := after.ExtractSubject(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if after.Validate(token, "user") {
		t.Fatalf("expired token must not validate")
	}
}

func TestTokenCodec_TamperedIsInvalidNotExpired(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour).WithClock(fixedClock(issuedAt))
	token, _ := codec.Generate("user", nil)

	other := NewTokenCodec("other-secret", time.Hour).WithClock(fixedClock(issuedAt.Add(2 * time.Hour)))
	_, err := other.ExtractSubject(token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("bad signature must not be reported as expired")
	}
	if !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature, got %v", err)
	}
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.ExtractSubject(tok)
		if !errors.Is(err, domain.ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.ExtractSubject(unsigned); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_DefaultTTL(t *testing.T) {
	codec := NewTokenCodec("secret", 0).WithClock(fixedClock(issuedAt))
	token, _ := codec.Generate("user", nil)

	if !codec.WithClock(fixedClock(issuedAt.Add(9 * time.Hour))).Validate(token, "user") {
		t.Fatalf("expected token valid within default ttl")
	}
	if codec.WithClock(fixedClock(issuedAt.Add(11 * time.Hour))).Validate(token, "user") {
		t.Fatalf("expected token expired after default ttl")
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWS, got %q", token)
	}
}
