package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/api/metrics"
	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

type errorBody struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

var (
	expiredBody = errorBody{Message: "Token has expired", Details: "The provided token has expired."}
	invalidBody = errorBody{Message: "Token is invalid", Details: "The provided token is invalid."}
)

// Auth turns a bearer token into a domain.Identity on the request context.
//
// Requests without a bearer token pass through untouched; rejecting them is
// left to RequireCapability. A token that is present but expired, malformed,
// badly signed or issued to an unknown principal is answered here with 401.
func Auth(codec ports.TokenCodec, directory ports.PrincipalDirectory, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return next(c)
			}

			subject, err := codec.ExtractSubject(token)
			if err != nil {
				return reject(c, log, err)
			}

			req := c.Request()
			if _, installed := domain.IdentityFrom(req.Context()); !installed {
				principal, err := directory.Lookup(subject)
				if err != nil || !codec.Validate(token, principal.Name) {
					return reject(c, log, domain.ErrTokenInvalid)
				}
				caps, err := codec.ExtractCapabilities(token)
				if err != nil {
					return reject(c, log, err)
				}

				id := domain.Identity{Subject: principal.Name, Capabilities: caps}
				c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			}

			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get(echo.HeaderAuthorization), bearerPrefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// reject writes the 401 itself so the message distinguishes expiry from
// every other token failure.
func reject(c echo.Context, log zerolog.Logger, err error) error {
	body, reason := invalidBody, "invalid"
	if errors.Is(err, domain.ErrTokenExpired) {
		body, reason = expiredBody, "expired"
	}

	metrics.GateRejectionsTotal.WithLabelValues(reason).Inc()
	log.Info().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("bearer token rejected")

	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="invalid_token"`)
	return c.JSON(http.StatusUnauthorized, body)
}
