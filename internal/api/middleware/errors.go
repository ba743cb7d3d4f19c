package middleware

import "github.com/labstack/echo/v4"

// HandleErrors renders a handler error through the HTTP error handler right
// away, so middleware further out sees the final status code.
func HandleErrors() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}
