package config

// Version is the ingestd binary version.
// Set at build time via: -ldflags "-X github.com/loglytics/ingestd/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
