package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	AuthAPIURL     string        // Remote auth API base URL (the four /auth endpoints)
	AuthAPITimeout time.Duration // HTTP client timeout for auth API calls
	Port           string        // Service port

	RedisAddr     string // Redis address for the credential store; empty = in-memory
	RedisPassword string // Redis password
	RedisDB       int    // Redis database number
	StoreKeyTag   string // Key prefix for the credential store slots

	BackendTokenSecret   string        // Secret for signing backend JWT tokens; empty disables issuing
	BackendTokenIssuer   string        // JWT issuer claim
	BackendTokenAudience string        // JWT audience claim
	BackendTokenTTL      time.Duration // JWT token TTL
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		AuthAPIURL:           getEnv("AUTH_API_URL", "http://localhost:5100/api"),
		AuthAPITimeout:       10 * time.Second,
		Port:                 getEnv("PORT", "8090"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		StoreKeyTag:          getEnv("STORE_KEY_PREFIX", "session-hub:"),
		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "session-hub"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "backend"),
		BackendTokenTTL:      5 * time.Minute,
	}

	if timeoutStr := os.Getenv("AUTH_API_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_API_TIMEOUT format: %w", err)
		}
		config.AuthAPITimeout = duration
	}

	if ttlStr := os.Getenv("BACKEND_TOKEN_TTL"); ttlStr != "" {
		duration, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BACKEND_TOKEN_TTL format: %w", err)
		}
		config.BackendTokenTTL = duration
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB format: %w", err)
		}
		config.RedisDB = db
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AuthAPIURL == "" {
		return fmt.Errorf("AUTH_API_URL cannot be empty")
	}

	parsed, err := url.Parse(c.AuthAPIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("AUTH_API_URL is not a valid URL: %s", c.AuthAPIURL)
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.AuthAPITimeout <= 0 {
		return fmt.Errorf("AUTH_API_TIMEOUT must be positive")
	}

	if c.BackendTokenSecret != "" && c.BackendTokenTTL <= 0 {
		return fmt.Errorf("BACKEND_TOKEN_TTL must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
