// Package config provides application configuration management with environment
// variable loading, validation, and sensible defaults. It supports .env files
// for local development and validates all required settings on startup to
// prevent runtime configuration errors.
//
// Configuration is loaded from environment variables with the Load() function,
// which returns a validated Config struct or an error if required variables
// are missing or invalid.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
//	// Use configuration
//	server := &http.Server{
//	    Addr: ":" + cfg.Server.Port,
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It aggregates all configuration sections into a single struct
// for easy access throughout the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Google   GoogleConfig
	Gemini   GeminiConfig
	CORS     CORSConfig
	Cache    CacheConfig
}

// ServerConfig holds server-specific configuration including port,
// environment, and the frontend origin.
type ServerConfig struct {
	Port        string
	Environment string
	FrontendURL string // Origin the browser frontend is served from
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure flag on auth cookies and the log output format.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseConfig holds PostgreSQL database configuration including
// connection parameters and pool settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	MaxConns int // Maximum number of connections in the pool
}

// RedisConfig holds Redis configuration including connection parameters,
// authentication, database selection, and pool size.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int // Connection pool size
}

// AuthConfig holds authentication configuration: the JWT signing secret
// and the lifetime of issued tokens. Tokens are stateless; their lifetime
// is the only thing bounding a session.
type AuthConfig struct {
	JWTSecret   []byte
	TokenExpiry time.Duration // Auth token lifetime (default: 7 days)
}

// GoogleConfig holds the Google federated-login configuration. The client
// ID is the expected audience of ID tokens posted by the frontend.
type GoogleConfig struct {
	ClientID string
}

// GeminiConfig holds the completion provider configuration: API key, model
// name, endpoint base URL, and the per-request timeout.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// CORSConfig holds Cross-Origin Resource Sharing (CORS) configuration
// to control which origins can access the API.
type CORSConfig struct {
	AllowedOrigins []string // List of allowed origin URLs
}

// CacheConfig holds cache configuration including TTL values for different
// data types and cache enablement flag.
type CacheConfig struct {
	UserTTL time.Duration
	Enabled bool // Master switch to enable/disable caching
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present (for local development) but
// doesn't fail if the file is missing (for production deployments).
//
// Required environment variables:
//   - POSTGRES_PASSWORD: Database password
//   - JWT_SECRET: Secret for JWT signing (>=32 bytes)
//   - GOOGLE_CLIENT_ID: OAuth client ID used as ID token audience
//   - GEMINI_API_KEY: Completion provider API key
//
// Optional environment variables have sensible defaults. See .env.example
// for a complete list.
//
// Returns an error if any required variable is missing or if validation fails.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Configuration error")
//	}
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	// Get required environment variables with error handling
	postgresPassword, err := getEnvRequired("POSTGRES_PASSWORD")
	if err != nil {
		return nil, err
	}

	jwtSecret, err := getEnvRequired("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	googleClientID, err := getEnvRequired("GOOGLE_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	geminiAPIKey, err := getEnvRequired("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENV", "development"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			Database: getEnv("POSTGRES_DB", "novadb"),
			User:     getEnv("POSTGRES_USER", "novauser"),
			Password: postgresPassword,
			MaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSecret:   []byte(jwtSecret),
			TokenExpiry: getEnvAsDuration("JWT_TOKEN_EXPIRY", 168*time.Hour), // 7 days
		},
		Google: GoogleConfig{
			ClientID: googleClientID,
		},
		Gemini: GeminiConfig{
			APIKey:  geminiAPIKey,
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Cache: CacheConfig{
			UserTTL: getEnvAsDuration("CACHE_USER_TTL", 15*time.Minute),
			Enabled: getEnv("CACHE_ENABLED", "true") == "true",
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if all required configuration is present and valid.
// It performs comprehensive validation including:
//   - Port numbers are valid integers
//   - URLs are properly formatted
//   - JWT secret meets minimum length requirement (32 bytes)
//   - Required credentials are present
//
// This method is called automatically by Load() but can also be called
// independently for testing or validation purposes.
//
// Returns an error describing the first validation failure encountered,
// or nil if all configuration is valid.
func (c *Config) Validate() error {
	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	// Validate database port
	if _, err := strconv.Atoi(c.Database.Port); err != nil {
		return fmt.Errorf("database port must be a valid integer: %w", err)
	}

	// Validate Redis port
	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("redis port must be a valid integer: %w", err)
	}

	// Validate JWT secret
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 bytes")
	}
	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("token expiry must be positive")
	}

	// Validate Google federated login configuration
	if c.Google.ClientID == "" {
		return fmt.Errorf("google OAuth client ID is required")
	}

	// Validate completion provider configuration
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required")
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("gemini model is required")
	}
	if _, err := url.ParseRequestURI(c.Gemini.BaseURL); err != nil {
		return fmt.Errorf("invalid gemini base URL: %w", err)
	}

	// Validate frontend URL format
	if _, err := url.ParseRequestURI(c.Server.FrontendURL); err != nil {
		return fmt.Errorf("invalid frontend URL: %w", err)
	}

	// Validate database password
	if c.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}

	return nil
}

// DSN returns the PostgreSQL Data Source Name (connection string) formatted
// for use with the lib/pq driver.
//
// Format: "host=X port=Y user=Z password=W dbname=N sslmode=disable"
//
// Note: SSL is disabled for local development. In production, consider
// enabling SSL and configuring appropriate certificates.
//
// Example:
//
//	db, err := sql.Open("postgres", cfg.Database.DSN())
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database,
	)
}

// Address returns the Redis server address in "host:port" format.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{
//	    Addr: cfg.Redis.Address(),
//	})
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions for environment variable parsing

// getEnv retrieves an environment variable with a default fallback.
// Returns the environment variable value if set, otherwise returns defaultValue.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired retrieves a required environment variable.
// Returns an error if the variable is not set or is empty.
//
// Use this for configuration that has no sensible default and must be
// explicitly provided by the operator.
func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an integer with a default fallback.
// If the variable is not set or cannot be parsed as an integer, returns defaultValue.
//
// Example:
//
//	maxConns := getEnvAsInt("MAX_CONNECTIONS", 25)
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration with a default fallback.
// Supports Go duration format: "300ms", "1.5h", "2h45m", etc.
// If the variable is not set or cannot be parsed, returns defaultValue.
//
// Example:
//
//	timeout := getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second)
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves an environment variable as a string slice with a default fallback.
// Parses comma-separated values into a slice.
// If the variable is not set, returns defaultValue.
//
// Example:
//
//	// ALLOWED_ORIGINS=http://localhost:3000,https://example.com
//	origins := getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
//	// Returns: ["http://localhost:3000", "https://example.com"]
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Simple comma-separated parsing
	var result []string
	current := ""
	for _, char := range valueStr {
		if char == ',' {
			if current != "" {
				result = append(result, current)
				current = ""
			}
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}
