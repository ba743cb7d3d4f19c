package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/magmutual/users-api/docs"
	"github.com/magmutual/users-api/internal/api/handler"
	"github.com/magmutual/users-api/internal/api/metrics"
	"github.com/magmutual/users-api/internal/api/middleware"
	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const defaultMaxUpload = "10M"

// Deps are the collaborators the router hands to handlers and middleware.
type Deps struct {
	Users     ports.UserService
	Auth      ports.AuthService
	Importer  ports.ImportService
	Codec     ports.TokenCodec
	Directory ports.PrincipalDirectory
	// Readiness lists the dependencies pinged by GET /health/ready.
	Readiness map[string]handler.Pinger

	// Registerer receives the HTTP request collectors; nil means the default
	// registry served on /metrics.
	Registerer prometheus.Registerer

	CORSOrigin string
	MaxUpload  string
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metrics.Namespace,
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.HandleErrors())
	if d.CORSOrigin != "" {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     []string{d.CORSOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
			AllowCredentials: true,
		}))
	}

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	// Login sits outside the gate so a stale token never blocks getting a new one.
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/api/auth/authenticate", authHandler.Authenticate)

	apiGroup := e.Group("/api", middleware.Auth(d.Codec, d.Directory, d.Log))

	userHandler := handler.NewUserHandler(d.Users)
	uploadHandler := handler.NewUploadHandler(d.Importer, d.Log)

	maxUpload := d.MaxUpload
	if maxUpload == "" {
		maxUpload = defaultMaxUpload
	}

	users := apiGroup.Group("/users")
	users.GET("", userHandler.List, middleware.RequireCapability(domain.CapGetUsers))
	users.GET("/:id", userHandler.Get, middleware.RequireCapability(domain.CapGetUsers))
	users.POST("", userHandler.Create, middleware.RequireCapability(domain.CapPostUsers))
	users.PUT("/:id", userHandler.Update, middleware.RequireCapability(domain.CapPutUsers))
	users.DELETE("/:id", userHandler.Delete, middleware.RequireCapability(domain.CapDeleteUsers))
	users.POST("/upload", uploadHandler.Upload,
		middleware.RequireCapability(domain.CapPostUsers),
		echomiddleware.BodyLimit(maxUpload),
	)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error()
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
