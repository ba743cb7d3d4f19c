package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/magmutual/users-api/internal/api/metrics"
	"github.com/magmutual/users-api/internal/core/domain"
)

// RequireCapability enforces that the identity installed by Auth holds cap.
// It returns domain.ErrUnauthenticated when no identity is present and
// domain.ErrForbidden when the capability is missing.
func RequireCapability(cap domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := domain.IdentityFrom(c.Request().Context())
			if !ok {
				metrics.GateRejectionsTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}
			if !id.Has(cap) {
				metrics.GateRejectionsTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
