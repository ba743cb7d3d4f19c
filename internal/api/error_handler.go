package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "details": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("request rejected")
		}
		return he.Code, errorResponse{Message: http.StatusText(he.Code), Details: fmt.Sprint(he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{"Invalid credentials", "Username or password is incorrect."}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{"Unauthorized", "Full authentication is required to access this resource."}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{"Forbidden", "Access is denied."}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{"User not found", err.Error()}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{"User already exists", err.Error()}
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest, errorResponse{"Invalid date range", err.Error()}
	case errors.Is(err, domain.ErrIDMismatch),
		errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest, errorResponse{"Bad request", err.Error()}
	case errors.Is(err, domain.ErrEmptyUpload):
		return http.StatusBadRequest, errorResponse{"Please upload a CSV file.", "The multipart field \"file\" is missing or empty."}
	case errors.Is(err, domain.ErrCSVParse):
		logImportFailure(log, c, err)
		return http.StatusInternalServerError, errorResponse{"CSV parsing failed", "Failed to parse CSV file"}
	case errors.Is(err, domain.ErrImportRow):
		logImportFailure(log, c, err)
		return http.StatusInternalServerError, errorResponse{"CSV upload failed", importRowDetails(err)}
	case errors.Is(err, domain.ErrInvalidDateFormat):
		return http.StatusBadRequest, errorResponse{"Bad request", err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{"Internal server error", "An unexpected error occurred."}
}

// importRowDetails only echoes row errors whose text is about the file itself.
// Store failures stay generic.
func importRowDetails(err error) string {
	if errors.Is(err, domain.ErrInvalidDateFormat) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrMissingColumn) {
		return err.Error()
	}
	return "Failed to parse or save CSV file"
}

func logImportFailure(log zerolog.Logger, c echo.Context, err error) {
	log.Warn().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("csv import rejected")
}
