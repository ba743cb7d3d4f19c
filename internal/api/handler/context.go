package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/magmutual/users-api/internal/core/domain"
)

// subject returns the authenticated principal name for logging, or "" when
// the request carries no identity.
func subject(c echo.Context) string {
	id, ok := domain.IdentityFrom(c.Request().Context())
	if !ok {
		return ""
	}
	return id.Subject
}
