package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/api"
	"github.com/magmutual/users-api/internal/api/handler"
	"github.com/magmutual/users-api/internal/core/ports"
	"github.com/magmutual/users-api/internal/core/service"
	"github.com/magmutual/users-api/internal/infrastructure/config"
	mongostore "github.com/magmutual/users-api/internal/infrastructure/db/mongo"
	redisstore "github.com/magmutual/users-api/internal/infrastructure/db/redis"
	"github.com/magmutual/users-api/internal/infrastructure/db/sqldb"
	"github.com/magmutual/users-api/internal/infrastructure/queue"
	"github.com/magmutual/users-api/internal/infrastructure/security"
)

type closer func(ctx context.Context) error

// New wires every dependency from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	repo, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	readiness := map[string]handler.Pinger{"database": repo}

	var ledger ports.ImportLedger
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		ledger = redisstore.NewImportLedger(rdb, cfg.Import.DedupTTL)
		readiness["redis"] = redisstore.Pinger{Client: rdb}
	} else {
		log.Info().Msg("REDIS_ADDR not set, upload idempotency disabled")
	}

	directory, err := security.NewDirectory(cfg.Auth.BcryptCost,
		security.DefaultPrincipals(cfg.Auth.UserPassword, cfg.Auth.AdminPassword)...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to build principal directory: %w", err)
	}
	codec := security.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	a.importer = service.NewImportService(repo, ledger, cfg.Import.Timeout, log)
	a.dispatcher = queue.NewDispatcher(cfg.Import.Workers, a.importer, log)

	a.router = api.NewRouter(api.Deps{
		Users:      service.NewUserService(repo, log),
		Auth:       service.NewAuthService(directory, codec, log),
		Importer:   a.dispatcher,
		Codec:      codec,
		Directory:  directory,
		Readiness:  readiness,
		CORSOrigin: cfg.CORSOrigin,
		MaxUpload:  cfg.Import.MaxUpload,
		Log:        log,
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.UserRepository, error) {
	if a.cfg.DB.Driver == config.DriverMongo {
		db, err := mongostore.Connect(ctx, mongostore.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) error { return mongostore.Disconnect(ctx, db) })

		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		a.log.Info().Str("database", a.cfg.Mongo.Database).Msg("connected to mongo")
		return repo, nil
	}

	db, err := sqldb.Connect(sqldb.Config{Driver: a.cfg.DB.Driver, DSN: a.cfg.DB.DSN, Debug: a.cfg.DB.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.DB.Driver, err)
	}
	a.closers = append(a.closers, func(context.Context) error { return sqldb.Close(db) })
	a.log.Info().Str("driver", a.cfg.DB.Driver).Msg("connected to database")
	return sqldb.NewUserRepository(db), nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
