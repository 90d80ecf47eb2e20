package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	TokenTTL   time.Duration `env:"TOKEN_TTL,   default=24h"`
	RoutesFile string        `env:"ROUTES_FILE"`

	Captcha CaptchaConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Roles   RoleCacheConfig
	Audit   AuditConfig
}

type CaptchaConfig struct {
	Enabled bool          `env:"CAPTCHA_ENABLED, default=true"`
	TTL     time.Duration `env:"CAPTCHA_TTL,     default=5m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,      default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,       default=console"`
	AppName  string `env:"MONGO_APP_NAME, default=console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

type RoleCacheConfig struct {
	Size int           `env:"ROLE_CACHE_SIZE, default=128"`
	TTL  time.Duration `env:"ROLE_CACHE_TTL,  default=1m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Captcha.Enabled && c.Captcha.TTL <= 0 {
		return errors.New("CAPTCHA_TTL must be positive")
	}
	return nil
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}
