// @title                       Users API
// @version                     1.0
// @description                 User records behind a bearer-token gate, with all-or-nothing CSV import.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/magmutual/users-api/internal/app"
	"github.com/magmutual/users-api/internal/infrastructure/config"
	"github.com/magmutual/users-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "users-api",
	Short:         "users-api serves and imports user records",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  serveRunE,
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a CSV file into the configured store in one transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  importRunE,
}

func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "users-api",
	})
	return cfg, log, nil
}

func serveRunE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("error while closing connections")
		}
	}()

	return a.Serve(ctx)
}

func importRunE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.Import(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d users from %s\n", res.Imported, args[0])
	return nil
}

func main() {
	rootCmd.AddCommand(serveCmd, importCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
