package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the gateway.
// Following 12-factor app principles, all config is loaded from environment variables.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Auth      AuthConfig
	Assets    AssetsConfig
	Image     ImageConfig
	Redis     RedisConfig
	Wholesale WholesaleConfig
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"8080"`
	Host            string `env:"HOST" envDefault:"0.0.0.0"`
	ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"15"`
	WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
	ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int    `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// BackendConfig points at the two upstream services that own all
// persistent state: the products backend and the wholesale backend.
type BackendConfig struct {
	ProductsURL  string `env:"BACKEND_URL" envDefault:"http://localhost:4001"`
	WholesaleURL string `env:"WHOLESALE_BACKEND_URL" envDefault:"http://localhost:4002"`
	TimeoutSecs  int    `env:"BACKEND_TIMEOUT" envDefault:"30"`
	// ServiceToken, when set, lets the gateway warm caches that need an
	// authenticated backend call at startup.
	ServiceToken string `env:"SERVICE_TOKEN"`
}

type AuthConfig struct {
	// JWTSecret enables local validation of backend-issued session
	// tokens. When empty every request is verified against the backend's
	// /api/auth/verify endpoint instead.
	JWTSecret          string `env:"AUTH_JWT_SECRET"`
	CookieName         string `env:"AUTH_COOKIE_NAME" envDefault:"token"`
	CookieMaxAge       int    `env:"AUTH_COOKIE_MAX_AGE" envDefault:"604800"`
	CookieSecure       bool   `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	SessionCacheTTL    int    `env:"AUTH_SESSION_CACHE_TTL" envDefault:"300"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	AppURL             string `env:"APP_URL" envDefault:"http://localhost:3000"`
}

// AssetsConfig configures the image-hosting service client.
type AssetsConfig struct {
	UploadURL  string `env:"ASSETS_UPLOAD_URL" envDefault:"https://upload.imagekit.io/api/v1/files/upload"`
	APIURL     string `env:"ASSETS_API_URL" envDefault:"https://api.imagekit.io/v1"`
	PrivateKey string `env:"ASSETS_PRIVATE_KEY"`
	Folder     string `env:"ASSETS_FOLDER" envDefault:"/wholesale-products"`
}

// ImageConfig is the single compression policy applied to every prepared
// image (product photos and wholesale items alike).
type ImageConfig struct {
	MaxDimension int `env:"IMAGE_MAX_DIMENSION" envDefault:"800"`
	JPEGQuality  int `env:"IMAGE_JPEG_QUALITY" envDefault:"70"`
}

type RedisConfig struct {
	// Addr enables the shared session cache. Empty means an in-process
	// TTL cache is used instead.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type WholesaleConfig struct {
	// RollbackOnFailure deletes already-uploaded assets when a later item
	// in the batch fails. Turning it off restores the historical
	// leave-orphans behavior.
	RollbackOnFailure bool `env:"WHOLESALE_ROLLBACK_ON_FAILURE" envDefault:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Backend.ProductsURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	if c.Backend.WholesaleURL == "" {
		return fmt.Errorf("WHOLESALE_BACKEND_URL is required")
	}

	if c.Image.MaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be positive")
	}

	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}
