package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT,      default=4000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Store   StoreConfig
	Hash    HashConfig
	OAuth   OAuthConfig

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"`
	CookieName   string        `env:"SESSION_COOKIE, default=todolist_session"`
	SecureCookie bool          `env:"SECURE_COOKIE,  default=false"`
}

type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER,  default=mongo"`
	Timeout time.Duration `env:"STORE_TIMEOUT, default=3s"`
}

type HashConfig struct {
	Cost    int `env:"HASH_COST,    default=10"`
	Workers int `env:"HASH_WORKERS, default=0"`
}

type OAuthConfig struct {
	Timeout time.Duration `env:"PROVIDER_TIMEOUT, default=10s"`
	Google  OAuthClient   `env:", prefix=GOOGLE_"`
	GitHub  OAuthClient   `env:", prefix=GITHUB_"`
}

type OAuthClient struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=todolist"`
}

type PostgresConfig struct {
	User     string `env:"PG_USER,     default=postgres"`
	Password string `env:"PG_PASSWORD"`
	Host     string `env:"PG_HOST,     default=localhost"`
	Port     int    `env:"PG_PORT,     default=5432"`
	Database string `env:"PG_DATABASE, default=todolist"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch c.Store.Driver {
	case DriverMongo, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverPostgres, c.Store.Driver))
	}
	if c.Hash.Workers < 0 {
		errs = append(errs, errors.New("HASH_WORKERS must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
