package app

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/ports"
	"github.com/magmutual/users-api/internal/core/service"
	"github.com/magmutual/users-api/internal/infrastructure/config"
	"github.com/magmutual/users-api/internal/infrastructure/queue"
)

// App is the assembled users API.
type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	importer   *service.ImportService
	dispatcher *queue.Dispatcher
	router     *echo.Echo
	closers    []closer
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to SHUTDOWN_TIMEOUT before stopping the import workers.
func (a *App) Serve(ctx context.Context) error {
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	a.dispatcher.Start(workersCtx)

	srvErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Msg("http server listening")
		srvErr <- a.router.Start(":" + a.cfg.Port)
	}()

	select {
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.router.Shutdown(shutdownCtx)
}

// Import runs one CSV file through the ingestion pipeline outside HTTP.
func (a *App) Import(ctx context.Context, r io.Reader) (*ports.ImportResult, error) {
	return a.importer.ImportCSV(ctx, r, "")
}
