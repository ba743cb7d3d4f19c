package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHandleErrors_StatusIsFinal(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.String(http.StatusNotFound, err.Error())
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var seen int
	outer := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			seen = c.Response().Status
			return err
		}
	}
	h := outer(HandleErrors()(func(c echo.Context) error {
		return errors.New("missing")
	}))

	if err := h(c); err != nil {
		t.Fatalf("expected error to be consumed, got %v", err)
	}
	if seen != http.StatusNotFound || rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before returning, outer saw %d, wrote %d", seen, rec.Code)
	}
	if rec.Body.String() != "missing" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
