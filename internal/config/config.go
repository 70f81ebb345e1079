// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// defaultCatalogueCacheTTL is what the catalogue cache uses when
// CATALOGUE_CACHE_TTL is zero.
const defaultCatalogueCacheTTL = 5 * time.Minute

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Catalogue read cache and write throttling
	CatalogueCacheTTL time.Duration
	RateLimitWrites   int // writes per client per RateLimitWindow; 0 disables
	RateLimitWindow   time.Duration

	// S3-compatible object storage for category thumbnails
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Lifetime of presigned thumbnail links. Cached catalogues embed these
	// links, so CatalogueCacheTTL may not exceed it unless S3PublicURL is set.
	S3PresignExpiry time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a numeric value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "taxonomy"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "taxonomy"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		RateLimitWindow: time.Minute,

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	ttl, err := time.ParseDuration(envOrDefault("CATALOGUE_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("CATALOGUE_CACHE_TTL: %w", err)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("CATALOGUE_CACHE_TTL must not be negative")
	}
	cfg.CatalogueCacheTTL = ttl

	writes, err := strconv.Atoi(envOrDefault("RATE_LIMIT_WRITES", "60"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WRITES: %w", err)
	}
	if writes < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WRITES must not be negative")
	}
	cfg.RateLimitWrites = writes

	expiry, err := time.ParseDuration(envOrDefault("S3_PRESIGN_EXPIRY", "1h"))
	if err != nil {
		return nil, fmt.Errorf("S3_PRESIGN_EXPIRY: %w", err)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("S3_PRESIGN_EXPIRY must be positive")
	}
	cfg.S3PresignExpiry = expiry

	if cfg.S3Endpoint != "" && cfg.S3PublicURL == "" {
		effective := ttl
		if effective == 0 {
			effective = defaultCatalogueCacheTTL
		}
		if effective > expiry {
			return nil, fmt.Errorf("CATALOGUE_CACHE_TTL (%s) must not exceed S3_PRESIGN_EXPIRY (%s) when thumbnails are presigned", effective, expiry)
		}
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
