// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds every setting of the chat server.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"messages.db"`
	DatabaseURL   string `env:"DB_URL"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"chat:"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTIssuer  string        `env:"JWT_ISS" envDefault:"chatrooms"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// SecureCookies marks the session cookie HTTPS-only.
	SecureCookies bool `env:"COOKIE_SECURE" envDefault:"true"`

	RateLimitCooldown time.Duration `env:"RATE_LIMIT_COOLDOWN" envDefault:"250ms"`
	RateLimitTTL      time.Duration `env:"RATE_LIMIT_TTL" envDefault:"10m"`
	LoginRateRequests int           `env:"LOGIN_RATE_REQUESTS" envDefault:"10"`
	LoginRateWindow   time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	PublicRooms      []string      `env:"PUBLIC_ROOMS" envDefault:"Suggestions,Feedback" envSeparator:","`
	EmojiFile        string        `env:"EMOJI_FILE"`
	DisplayTimezone  string        `env:"DISPLAY_TIMEZONE" envDefault:"America/New_York"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"2000"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	WSReadLimit      int64         `env:"WS_READ_LIMIT" envDefault:"32768"`
	WSPingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("internal/config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is empty"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DB_URL environment variable is not set"))
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.RateLimitCooldown < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_COOLDOWN must not be negative"))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.LoginRateRequests <= 0 || c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_REQUESTS and LOGIN_RATE_WINDOW must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("internal/config: %w", err)
	}
	return nil
}

// Location loads DisplayTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		slog.Warn("unknown display timezone, using UTC",
			"timezone", c.DisplayTimezone,
			"error", err)
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
