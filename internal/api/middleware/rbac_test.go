package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/magmutual/users-api/internal/core/domain"
)

func contextWithIdentity(id *domain.Identity) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != nil {
		req = req.WithContext(domain.WithIdentity(req.Context(), *id))
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireCapability_Allows(t *testing.T) {
	c := contextWithIdentity(&domain.Identity{Subject: "admin", Capabilities: []domain.Capability{domain.CapGetUsers, domain.CapPostUsers}})

	called := false
	handler := RequireCapability(domain.CapPostUsers)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireCapability_Forbids(t *testing.T) {
	c := contextWithIdentity(&domain.Identity{Subject: "user", Capabilities: []domain.Capability{domain.CapGetUsers}})

	handler := RequireCapability(domain.CapDeleteUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireCapability_NoIdentity(t *testing.T) {
	c := contextWithIdentity(nil)

	handler := RequireCapability(domain.CapGetUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
