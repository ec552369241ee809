package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // Client CA for mTLS; empty disables client verification

	// Durable store
	DurableBackend string // "postgres" or "memory"
	DatabaseURL    string

	// Redis (ranked cache and, optionally, the memo layer)
	RedisURL   string
	PopularKey string
	RecentKey  string
	RecentSize int

	// Memoization of derived reads
	MemoBackend    string // "memory" or "redis"
	MemoTTL        time.Duration
	MemoMaxEntries int // In-process backend only

	// Background durable writes from the fast ingestion path
	AsyncPersistTimeout time.Duration

	// Interval of the ranked/durable drift check (0 disables)
	DriftCheckInterval time.Duration

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Rate limiting, requests per minute per IP (0 disables)
	RateLimitPerMinute int

	// OIDC bearer-token protection for admin routes (disabled when issuer is empty)
	OIDCIssuer   string
	OIDCClientID string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:                 getEnv("ENV", "development"),
		ServerAddr:          getEnv("SERVER_ADDR", ":3000"),
		TLSEnabled:          getEnv("TLS_ENABLED", "false") == "true",
		TLSCertFile:         getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:          getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:           getEnv("TLS_CA_FILE", ""),
		DurableBackend:      getEnv("DURABLE_BACKEND", "postgres"),
		DatabaseURL:         getEnv("DATABASE_URL", "postgres://localhost:5432/searchrank?sslmode=disable"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		PopularKey:          getEnv("RANKED_POPULAR_KEY", "popular_keywords"),
		RecentKey:           getEnv("RANKED_RECENT_KEY", "recent_keywords"),
		RecentSize:          getEnvInt("RECENT_SIZE", 10),
		MemoBackend:         getEnv("MEMO_BACKEND", "memory"),
		MemoTTL:             getEnvDuration("MEMO_TTL", 10*time.Minute),
		MemoMaxEntries:      getEnvInt("MEMO_MAX_ENTRIES", 1024),
		AsyncPersistTimeout: getEnvDuration("ASYNC_PERSIST_TIMEOUT", 30*time.Second),
		DriftCheckInterval:  getEnvDuration("DRIFT_CHECK_INTERVAL", 5*time.Minute),
		CORSOrigins:         getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 600),
		OIDCIssuer:          getEnv("OIDC_ISSUER", ""),
		OIDCClientID:        getEnv("OIDC_CLIENT_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsAdminAuthEnabled returns true if admin routes require an OIDC bearer token.
func (c *Config) IsAdminAuthEnabled() bool {
	return c.OIDCIssuer != ""
}
