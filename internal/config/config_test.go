package config_test

import (
	"os"
	"testing"

	"github.com/loglytics/ingestd/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"DATABASE_URL", "REDIS_URL", "PORT", "METRICS_PORT", "LISTEN_HOST",
		"CORS_ORIGINS", "ENCRYPTION_PROVIDER", "ENCRYPTION_KEY", "VAULT_ADDR",
		"VAULT_TOKEN", "KDF_ITERATIONS", "INGEST_WORKERS", "MAX_BODY_MB",
		"MAX_BATCH_RECORDS", "ADMISSION_RATE_PER_SEC", "ADMISSION_BURST",
		"ANALYTICS_CACHE_TTL_SECONDS", "RETENTION_DAYS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck // test cleanup
	}
}

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ingestd?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	validEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "3030" {
		t.Errorf("Port = %q, want 3030", cfg.Port)
	}

	if cfg.KDFIterations != 100_000 {
		t.Errorf("KDFIterations = %d, want 100000", cfg.KDFIterations)
	}

	if cfg.Addr() != "127.0.0.1:3030" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoad_InvalidEncryptionKeyLength(t *testing.T) {
	clearEnv(t)
	validEnv(t)
	t.Setenv("ENCRYPTION_KEY", "deadbeef")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for short ENCRYPTION_KEY")
	}
}

func TestLoad_MetricsPortCollision(t *testing.T) {
	clearEnv(t)
	validEnv(t)
	t.Setenv("METRICS_PORT", "3030")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for METRICS_PORT == PORT")
	}
}

func TestSecret_RedactsValue(t *testing.T) {
	s := config.Secret("super-secret")

	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q", s.String())
	}

	if s.Value() != "super-secret" {
		t.Errorf("Value() = %q", s.Value())
	}
}
