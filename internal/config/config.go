// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/middleware"
)

// DefaultJWTSecret is the development signing secret. Production refuses it.
const DefaultJWTSecret = "dev-only-secret-change-me-0123456789abcdefghijklmnopqrstuvwxyzAB"

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MigrateOnBoot bool   `env:"MIGRATE_ON_BOOT" envDefault:"true"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Access tokens
	JWTIssuer    string `env:"JWT_ISSUER" envDefault:"localhost"`
	JWTAlgorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev-only-secret-change-me-0123456789abcdefghijklmnopqrstuvwxyzAB"`
	JWTTTL       int    `env:"JWT_TTL" envDefault:"3600"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled   bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIPerMinute int  `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"120"`
	RateLimitAPIBurst     int  `env:"RATE_LIMIT_API_BURST" envDefault:"20"`
	RateLimitIPEnabled    bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS        int  `env:"RATE_LIMIT_IP_RPS" envDefault:"100"`
	RateLimitIPBurst      int  `env:"RATE_LIMIT_IP_BURST" envDefault:"20"`

	// Visit logging
	VisitsEnabled   bool `env:"VISITS_ENABLED" envDefault:"true"`
	VisitsBatchSize int  `env:"VISITS_BATCH_SIZE" envDefault:"100"`

	// Comma-separated CIDRs or addresses of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies string `env:"TRUSTED_PROXIES" envDefault:""`

	// Comma-separated list of allowed CORS origins.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	var result []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetTrustedProxies parses TRUSTED_PROXIES.
func (c *Config) GetTrustedProxies() ([]netip.Prefix, error) {
	return middleware.ParseTrustedProxies(c.TrustedProxies)
}

// TokenConfig returns the immutable signing configuration shared by the
// token issuer and verifier.
func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Issuer:    c.JWTIssuer,
		Algorithm: c.JWTAlgorithm,
		Secret:    []byte(c.JWTSecret),
		TTL:       time.Duration(c.JWTTTL) * time.Second,
	}
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if err := c.TokenConfig().Validate(); err != nil {
		return fmt.Errorf("invalid token config: %w", err)
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if _, err := c.GetTrustedProxies(); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	if c.VisitsBatchSize <= 0 {
		return errors.New("VISITS_BATCH_SIZE must be positive")
	}
	if c.MaxRequestBodySize <= 0 {
		return errors.New("MAX_REQUEST_BODY_SIZE must be positive")
	}
	return nil
}

// Load reads an optional .env file, parses environment variables and
// validates the result. Variables already set in the environment win
// over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
