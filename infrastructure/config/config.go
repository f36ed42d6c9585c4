package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// SurrealDB configuration
	SurrealURL       string
	SurrealNamespace string
	SurrealDatabase  string
	SurrealAccess    string // record access method used for signup/signin

	// Storage backend selection, "surreal" or "memory"
	StorageBackend string

	// Attachment storage
	AttachmentDir string

	// Location resolution. With no endpoint configured notes are tagged
	// with the fixed default position.
	LocationEndpoint string
	LocationTimeout  time.Duration
	DefaultLatitude  float64
	DefaultLongitude float64

	// Authentication
	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		SurrealURL:       getEnv("SURREAL_URL", "ws://localhost:8000"),
		SurrealNamespace: getEnv("SURREAL_NAMESPACE", "maxnotes"),
		SurrealDatabase:  getEnv("SURREAL_DATABASE", "maxnotes"),
		SurrealAccess:    getEnv("SURREAL_ACCESS", "account"),

		StorageBackend: getEnv("STORAGE_BACKEND", "surreal"),

		AttachmentDir: getEnv("ATTACHMENT_DIR", "data/attachments"),

		LocationEndpoint: getEnv("LOCATION_ENDPOINT", ""),
		LocationTimeout:  getEnvDuration("LOCATION_TIMEOUT", 10*time.Second),
		DefaultLatitude:  getEnvFloat("DEFAULT_LATITUDE", 0),
		DefaultLongitude: getEnvFloat("DEFAULT_LONGITUDE", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "maxnotes"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.StorageBackend != "surreal" && c.StorageBackend != "memory" {
		return fmt.Errorf("STORAGE_BACKEND must be surreal or memory, got %q", c.StorageBackend)
	}
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend == "surreal" && c.SurrealURL == "" {
			return fmt.Errorf("SURREAL_URL is required")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
