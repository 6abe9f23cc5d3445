package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/crypto"
	"github.com/loglytics/ingestd/internal/dbpool"
	"github.com/loglytics/ingestd/internal/models"
	"github.com/loglytics/ingestd/internal/store"
)

// testHexKey is a valid 64-char hex string (32 bytes) for test encryption.
const testHexKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// newCryptoService creates a fresh crypto.Service (StaticProvider locks to a fixed key).
func newCryptoService(t *testing.T) *crypto.Service {
	t.Helper()

	provider, err := crypto.NewStaticProvider(testHexKey)
	if err != nil {
		t.Fatalf("creating static provider: %v", err)
	}

	return crypto.NewService(provider)
}

// setupTestTenant creates a fresh tenant via CredentialStore.Create and
// returns a Base wired to it, cleaned up after the test.
func setupTestTenant(t *testing.T) (_ store.Base, tenantID string) {
	t.Helper()

	env := getTestEnv(t)
	base := store.Base{Pool: env.pool, Log: env.log, Crypto: newCryptoService(t)}
	creds := store.NewCredentialStore(base)

	ctx := context.Background()

	tenant := &models.Tenant{
		OwnerUserID:  "test-owner",
		Name:         "test-tenant",
		PlatformTag:  "test-platform",
		APIKeyHash:   "test-hash",
		APIKeySalt:   "test-salt",
		APIKeyPrefix: "test_",
		Status:       models.TenantStatusInactive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := creds.Create(ctx, tenant); err != nil {
		t.Fatalf("creating test tenant: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		env.pool.Exec(cleanCtx, "DELETE FROM log_records WHERE tenant_id = $1", tenant.TenantID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM tenants WHERE tenant_id = $1", tenant.TenantID)      //nolint:errcheck // best-effort cleanup
	})

	return base, tenant.TenantID
}
