package api

import "github.com/loglytics/ingestd/internal/domain"

// Type aliases to the canonical domain interfaces.
// Handlers depend on these; the domain package is the single source of truth.
//
// Fan-out has no alias here: wsHandler and the health check depend on the
// concrete *ws.Hub directly (for Register/Unregister/ClientCount), so
// domain.FanoutService's narrower Subscribe/Broadcast view has no consumer
// in this package.
type (
	Credentials = domain.CredentialService
	Ingest      = domain.IngestPipeline
	Analytics   = domain.AnalyticsService
)
