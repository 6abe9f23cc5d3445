// Command ingestd runs the ingestd HTTP+WebSocket server: tenant
// credential issuance, batch log ingest, live fan-out, and on-demand
// analytics reporting.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/analytics"
	"github.com/loglytics/ingestd/internal/analyticscache"
	"github.com/loglytics/ingestd/internal/api"
	"github.com/loglytics/ingestd/internal/config"
	"github.com/loglytics/ingestd/internal/credential"
	"github.com/loglytics/ingestd/internal/crypto"
	"github.com/loglytics/ingestd/internal/db"
	"github.com/loglytics/ingestd/internal/db/migrations"
	"github.com/loglytics/ingestd/internal/dbpool"
	"github.com/loglytics/ingestd/internal/ingest"
	"github.com/loglytics/ingestd/internal/middleware"
	"github.com/loglytics/ingestd/internal/store"
	"github.com/loglytics/ingestd/internal/ws"
)

// version is set at build time via -ldflags; "dev" when built locally.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	log := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("ingestd exited")
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	cryptoSvc, err := newCryptoService(cfg)
	if err != nil {
		return err
	}

	redisClient, err := newRedisClient(cfg.RedisURL.Value())
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck // best-effort close on shutdown.

	base := store.Base{Pool: pool, Log: log, Crypto: cryptoSvc}
	credentialStore := store.NewCredentialStore(base)
	logRecordStore := store.NewLogRecordStore(base)
	analyticsCacheStore := store.NewAnalyticsCacheStore(base)

	bruteForceGuard := middleware.NewBruteForceGuard(ctx, log)
	credentialSvc := credential.NewService(ctx, credentialStore, bruteForceGuard, log, cfg.KDFIterations)

	hub := ws.NewHub(log)

	pipeline := ingest.NewPipeline(credentialSvc, logRecordStore, credentialStore, hub, log, ingest.Config{
		RatePerSecond: cfg.AdmissionRatePerSec,
		Burst:         cfg.AdmissionBurst,
	})

	cache := analyticscache.New(redisClient, analyticsCacheStore, log)
	engine := analytics.NewEngine(logRecordStore, cache, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Redis:       redisPinger{redisClient},
		Credentials: credentialSvc,
		Ingest:      pipeline,
		Analytics:   engine,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("ingestd listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// newCryptoService selects the at-rest key source per cfg.EncryptionProvider,
// "static" (single hex key, dev/single-tenant) or "vault" (HashiCorp Vault,
// one key per tenant).
func newCryptoService(cfg *config.Config) (*crypto.Service, error) {
	switch cfg.EncryptionProvider {
	case "vault":
		return crypto.NewService(crypto.NewVaultProvider(cfg.VaultAddr, cfg.VaultToken.Value())), nil
	default:
		provider, err := crypto.NewStaticProvider(cfg.EncryptionKey.Value())
		if err != nil {
			return nil, err
		}
		return crypto.NewService(provider), nil
	}
}

func newRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// redisPinger adapts *redis.Client to api.RedisPinger.
type redisPinger struct {
	client *redis.Client
}

func (r redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
