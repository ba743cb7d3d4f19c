package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/infrastructure/security"
)

var issuedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newGate(t *testing.T, now time.Time) (echo.MiddlewareFunc, *security.TokenCodec) {
	t.Helper()
	dir, err := security.NewDirectory(bcrypt.MinCost, security.DefaultPrincipals("user-pass", "admin-pass")...)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	codec := security.NewTokenCodec("secret", time.Hour).WithClock(func() time.Time { return now })
	return Auth(codec, dir, zerolog.Nop()), codec
}

func mustToken(t *testing.T, codec *security.TokenCodec, subject string, caps ...domain.Capability) string {
	t.Helper()
	tok, err := codec.Generate(subject, caps)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return body
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	gate, codec := newGate(t, issuedAt)
	token := mustToken(t, codec, "admin", domain.CapGetUsers, domain.CapDeleteUsers)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	calls := 0
	handler := gate(func(c echo.Context) error {
		calls++
		id, ok := domain.IdentityFrom(c.Request().Context())
		if !ok {
			t.Fatalf("identity not installed")
		}
		if id.Subject != "admin" || !id.Has(domain.CapDeleteUsers) || id.Has(domain.CapPostUsers) {
			t.Fatalf("unexpected identity: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected next to run once, ran %d times", calls)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeaderPassesThrough(t *testing.T) {
	gate, _ := newGate(t, issuedAt)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer lowercase"} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		called := false
		handler := gate(func(c echo.Context) error {
			called = true
			if _, ok := domain.IdentityFrom(c.Request().Context()); ok {
				t.Fatalf("identity must not be installed")
			}
			return c.NoContent(http.StatusOK)
		})

		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !called {
			t.Fatalf("header %q: next not called", header)
		}
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	_, issuer := newGate(t, issuedAt)
	token := mustToken(t, issuer, "user", domain.CapGetUsers)
	gate, _ := newGate(t, issuedAt.Add(2*time.Hour))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := gate(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body.Message != "Token has expired" || body.Details != "The provided token has expired." {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	gate, _ := newGate(t, issuedAt)
	forged := security.NewTokenCodec("other-secret", time.Hour).WithClock(func() time.Time { return issuedAt })
	forgedToken := mustToken(t, forged, "admin", domain.CapDeleteUsers)

	for _, token := range []string{"not-a-token", forgedToken, ""} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := gate(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if body.Message != "Token is invalid" || body.Details != "The provided token is invalid." {
			t.Fatalf("unexpected body: %+v", body)
		}
	}
}

func TestAuthMiddleware_UnknownPrincipal(t *testing.T) {
	gate, codec := newGate(t, issuedAt)
	token := mustToken(t, codec, "root", domain.CapDeleteUsers)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := gate(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_KeepsInstalledIdentity(t *testing.T) {
	gate, codec := newGate(t, issuedAt)
	token := mustToken(t, codec, "admin", domain.CapDeleteUsers)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	pre := domain.Identity{Subject: "user", Capabilities: []domain.Capability{domain.CapGetUsers}}
	req = req.WithContext(domain.WithIdentity(context.Background(), pre))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := gate(func(c echo.Context) error {
		id, _ := domain.IdentityFrom(c.Request().Context())
		if id.Subject != "user" {
			t.Fatalf("existing identity was replaced: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
