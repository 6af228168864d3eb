// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Checkout CheckoutConfig
	HTTP     HTTPConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
	// Timezone dates invoice numbers and receipt display.
	Timezone string
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves Timezone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DatabaseConfig selects postgres. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	ApplySchema bool
}

// Enabled reports whether postgres is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig selects the redis cart store. An empty Addr keeps carts in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// Enabled reports whether redis is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig configures verification of cashier tokens.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// Required rejects requests without a token. When false, anonymous
	// requests act as an unscoped terminal.
	Required bool
}

// CheckoutConfig tunes the transaction committer.
type CheckoutConfig struct {
	MaxAttempts  int
	BackoffStep  time.Duration
	StockPolicy  string
	HistoryLimit int
	// NumberStrategy is "optimistic" (clock digits plus a random pad) or
	// "sequence" (per-day counter in postgres).
	NumberStrategy string
}

// HTTPConfig holds the router settings.
type HTTPConfig struct {
	CORSOrigins        []string
	RateLimitRPS       float64
	RateLimitBurst     int
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "warungpos")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Asia/Jakarta")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_APPLY_SCHEMA", true)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_TTL", "12h")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("AUTH_REQUIRED", false)

	v.SetDefault("CHECKOUT_MAX_ATTEMPTS", 5)
	v.SetDefault("CHECKOUT_BACKOFF_STEP", "50ms")
	v.SetDefault("STOCK_POLICY", "allow_negative")
	v.SetDefault("HISTORY_LIMIT", 200)
	v.SetDefault("CHECKOUT_NUMBER_STRATEGY", "optimistic")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("IDEMPOTENCY_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
}

// Load reads envFile when it exists, then the environment, which wins.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
			Timezone: v.GetString("APP_TIMEZONE"),
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MinConns:    v.GetInt32("DB_MIN_CONNS"),
			ApplySchema: v.GetBool("DB_APPLY_SCHEMA"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CartTTL:  v.GetDuration("CART_TTL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			Issuer:    v.GetString("JWT_ISSUER"),
			Required:  v.GetBool("AUTH_REQUIRED"),
		},
		Checkout: CheckoutConfig{
			MaxAttempts:    v.GetInt("CHECKOUT_MAX_ATTEMPTS"),
			BackoffStep:    v.GetDuration("CHECKOUT_BACKOFF_STEP"),
			StockPolicy:    v.GetString("STOCK_POLICY"),
			HistoryLimit:   v.GetInt("HISTORY_LIMIT"),
			NumberStrategy: v.GetString("CHECKOUT_NUMBER_STRATEGY"),
		},
		HTTP: HTTPConfig{
			CORSOrigins:        splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
			IdempotencyEnabled: v.GetBool("IDEMPOTENCY_ENABLED"),
			IdempotencyTTL:     v.GetDuration("IDEMPOTENCY_TTL"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("AUTH_REQUIRED needs JWT_SECRET")
	}
	if c.Checkout.MaxAttempts < 1 {
		return fmt.Errorf("CHECKOUT_MAX_ATTEMPTS must be at least 1, got %d", c.Checkout.MaxAttempts)
	}
	if c.Checkout.BackoffStep < 0 {
		return errors.New("CHECKOUT_BACKOFF_STEP must not be negative")
	}
	switch c.Checkout.StockPolicy {
	case "allow_negative", "reject_negative":
	default:
		return fmt.Errorf("unknown STOCK_POLICY %q", c.Checkout.StockPolicy)
	}
	switch c.Checkout.NumberStrategy {
	case "optimistic":
	case "sequence":
		if !c.Database.Enabled() {
			return errors.New("CHECKOUT_NUMBER_STRATEGY=sequence needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown CHECKOUT_NUMBER_STRATEGY %q", c.Checkout.NumberStrategy)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
