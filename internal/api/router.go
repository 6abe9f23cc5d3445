package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/dbpool"
	"github.com/loglytics/ingestd/internal/middleware"
	"github.com/loglytics/ingestd/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Redis       RedisPinger
	Credentials Credentials
	Ingest      Ingest
	Analytics   Analytics
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB. Per-tenant admission is enforced separately by the ingest pipeline.
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Tenant-ID"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, deps.Redis, log, deps.Version)
	connections := NewConnectionsHandler(deps.Credentials)
	ingest := NewIngestHandler(deps.Ingest)
	analytics := NewAnalyticsHandler(deps.Analytics)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Issuing a connection authenticates as the owning user, not as a
	// tenant credential, so it sits outside the bearer-key-gated group.
	api.POST("/connections", connections.Create)
	api.GET("/connections", connections.List)
	api.DELETE("/connections/:tenant_id", connections.Revoke)

	// Everything below authenticates via Authorization: Bearer <key> +
	// X-Tenant-ID, guarded against brute force per tenant ID.
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(deps.Credentials, log, bfGuard))

	authed.POST("/ingest", ingest.Ingest)
	authed.GET("/ingest/test", ingest.Test)

	authed.GET("/analytics/:type", analytics.Report)
	authed.DELETE("/analytics", analytics.Invalidate)

	authed.GET("/ws/:tenant_id", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.Credentials))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
