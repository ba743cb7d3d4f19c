package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	CORSOrigin      string        `env:"CORS_ALLOWED_ORIGIN, default=http://localhost:3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Auth   AuthConfig
	DB     DBConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Import ImportConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET,         required"`
	TokenTTL      time.Duration `env:"JWT_TTL,            default=10h"`
	UserPassword  string        `env:"APP_USER_PASSWORD,  required"`
	AdminPassword string        `env:"APP_ADMIN_PASSWORD, required"`
	BcryptCost    int           `env:"BCRYPT_COST,        default=10"`
}

type DBConfig struct {
	Driver string `env:"DB_DRIVER, default=sqlite"`
	DSN    string `env:"DB_DSN"`
	Debug  bool   `env:"DB_DEBUG,  default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=users_api"`
}

// RedisConfig is optional; an empty Addr disables upload idempotency.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type ImportConfig struct {
	Timeout   time.Duration `env:"IMPORT_TIMEOUT,    default=2m"`
	Workers   int           `env:"IMPORT_WORKERS,    default=2"`
	MaxUpload string        `env:"IMPORT_MAX_UPLOAD, default=10M"`
	DedupTTL  time.Duration `env:"IMPORT_DEDUP_TTL,  default=24h"`
}

const DriverMongo = "mongo"

var supportedDrivers = map[string]struct{}{
	"sqlite":    {},
	"postgres":  {},
	"mysql":     {},
	DriverMongo: {},
}

// IsDevelopment reports whether human-friendly logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := supportedDrivers[c.DB.Driver]; !ok {
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DB.Driver))
	}
	if c.DB.Driver == DriverMongo && c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required when DB_DRIVER=mongo"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Import.Workers <= 0 {
		errs = append(errs, errors.New("IMPORT_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return loadWith(ctx, envconfig.OsLookuper())
}

func loadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
