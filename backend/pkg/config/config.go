package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "newsgraph/backend/pkg/errors"
)

// Graph backends
const (
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Graph store
	GraphBackend  string
	FixturePath   string // JSON fixture loaded by the memory backend
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Store resilience
	StoreTimeout        time.Duration
	StoreRetryBackoff   time.Duration
	BreakerFailureRatio float64

	// Snapshot indexes. A zero refresh interval disables periodic rebuilds.
	IndexRefreshInterval time.Duration
	LoaderConcurrency    int

	// Queries
	DefaultLimit int
	MaxLimit     int

	// Auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		GraphBackend:         getEnv("GRAPH_BACKEND", BackendNeo4j),
		FixturePath:          getEnv("FIXTURE_PATH", ""),
		Neo4jURI:             getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:        getEnv("NEO4J_DATABASE", ""),
		StoreTimeout:         getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		StoreRetryBackoff:    getEnvDuration("STORE_RETRY_BACKOFF", 200*time.Millisecond),
		BreakerFailureRatio:  getEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		IndexRefreshInterval: getEnvDuration("INDEX_REFRESH_INTERVAL", 5*time.Minute),
		LoaderConcurrency:    getEnvInt("LOADER_CONCURRENCY", 8),
		DefaultLimit:         getEnvInt("DEFAULT_LIMIT", 10),
		MaxLimit:             getEnvInt("MAX_LIMIT", 100),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTIssuer:            getEnv("JWT_ISSUER", ""),
		JWTAudience:          getEnvList("JWT_AUDIENCE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.GraphBackend {
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case BackendMemory:
		if c.FixturePath == "" {
			return apperrors.NewConfigMissingRequired("FIXTURE_PATH")
		}
	default:
		return apperrors.NewConfigValidationFailed("GRAPH_BACKEND", fmt.Sprintf("unknown backend %q", c.GraphBackend))
	}
	if c.StoreTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("STORE_TIMEOUT", "must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return apperrors.NewConfigValidationFailed("BREAKER_FAILURE_RATIO", "must be in (0, 1]")
	}
	if c.IndexRefreshInterval < 0 {
		return apperrors.NewConfigValidationFailed("INDEX_REFRESH_INTERVAL", "must not be negative")
	}
	if c.LoaderConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("LOADER_CONCURRENCY", "must be at least 1")
	}
	if c.DefaultLimit < 1 || c.MaxLimit < c.DefaultLimit {
		return apperrors.NewConfigValidationFailed("DEFAULT_LIMIT", "must be at least 1 and not exceed MAX_LIMIT")
	}
	// JWT secret is optional for development; identity-scoped queries then always fail Unauthorized
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
