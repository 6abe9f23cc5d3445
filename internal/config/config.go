// Package config provides environment-driven configuration for ingestd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	RedisURL    Secret

	Port        string
	MetricsPort string
	ListenHost  string
	CORSOrigins []string

	LogLevel string

	// EncryptionProvider selects the at-rest payload cipher's key source.
	EncryptionProvider string
	EncryptionKey       Secret
	VaultAddr           string
	VaultToken          Secret

	// KDFIterations is the PBKDF2-HMAC-SHA256 iteration count used to hash
	// presented API keys before comparison.
	KDFIterations int

	// IngestWorkers is loaded from INGEST_WORKERS (default 8). The ingest
	// pipeline does not read it; its parse/normalize pool always runs at
	// workerpool.DefaultLimit.
	IngestWorkers int

	// MaxBodyBytes is loaded from MAX_BODY_MB (default 10 MiB). The router
	// does not read it; it caps every request body at its fixed maxBodySize
	// (10 MiB).
	MaxBodyBytes int64

	// MaxBatchRecords is loaded from MAX_BATCH_RECORDS (default 5000).
	// Nothing reads it; no per-call record-count cap is applied from it.
	MaxBatchRecords int

	// AdmissionRatePerSec and AdmissionBurst bound the per-tenant ingest
	// admission limiter (distinct from the per-IP HTTP rate limiter).
	AdmissionRatePerSec int
	AdmissionBurst      int

	// AnalyticsCacheTTLSeconds is loaded from ANALYTICS_CACHE_TTL_SECONDS
	// (default 300). The analytics cache does not read it; cached reports
	// expire after the fixed models.DefaultCacheTTL (1h).
	AnalyticsCacheTTLSeconds int

	// RetentionDays is loaded from RETENTION_DAYS (default 90). Nothing reads
	// it and no purge runs on a schedule; LogRecordStore.PurgeOlderThan
	// deletes older records only when called.
	RetentionDays int

	EnableCLIOutputJSON bool
}

// Load reads configuration from environment variables with sensible defaults.
// It loads a .env file first (if present) purely for local development
// convenience; missing .env files are not an error.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // optional dev convenience, absence is fine

	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		RedisURL:    Secret(envOrDefault("REDIS_URL", "redis://127.0.0.1:6379/0")),

		Port:        envOrDefault("PORT", "3030"),
		MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),

		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		EncryptionProvider: envOrDefault("ENCRYPTION_PROVIDER", "static"),
		EncryptionKey:      Secret(envOrDefault("ENCRYPTION_KEY", "")),
		VaultAddr:          envOrDefault("VAULT_ADDR", "http://127.0.0.1:8200"),
		VaultToken:         Secret(envOrDefault("VAULT_TOKEN", "")),

		EnableCLIOutputJSON: envOrDefault("CLI_JSON", "false") == "true",
	}

	var err error

	if cfg.KDFIterations, err = envInt("KDF_ITERATIONS", 100_000, 10_000, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.IngestWorkers, err = envInt("INGEST_WORKERS", 8, 1, 64); err != nil {
		return nil, err
	}

	maxBodyMB, err := envInt("MAX_BODY_MB", 10, 1, 256)
	if err != nil {
		return nil, err
	}

	cfg.MaxBodyBytes = int64(maxBodyMB) << 20

	if cfg.MaxBatchRecords, err = envInt("MAX_BATCH_RECORDS", 5000, 1, 100_000); err != nil {
		return nil, err
	}

	if cfg.AdmissionRatePerSec, err = envInt("ADMISSION_RATE_PER_SEC", 500, 1, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.AdmissionBurst, err = envInt("ADMISSION_BURST", 1000, 1, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.AnalyticsCacheTTLSeconds, err = envInt("ANALYTICS_CACHE_TTL_SECONDS", 300, 1, 86_400); err != nil {
		return nil, err
	}

	if cfg.RetentionDays, err = envInt("RETENTION_DAYS", 90, 1, 3650); err != nil {
		return nil, err
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the API listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if v < min || v > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, min, max, v)
	}

	return v, nil
}
