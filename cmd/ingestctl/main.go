// Command ingestctl is a thin CLI over the ingestd REST and WebSocket API:
// issuing connections, pushing a batch of log lines, tailing a tenant's
// live stream, and pulling an analytics report.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loglytics/ingestd/internal/ingestdclient"
)

var version = "dev"

var (
	apiClient  *ingestdclient.Client
	flagURL    string
	flagKey    string
	flagTenant string
	flagFmt    string
)

type configFile struct {
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	TenantID string `yaml:"tenant_id"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "ingestctl",
		Short:   "ingestctl — issue connections, push logs, and pull analytics against an ingestd server",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = ingestdclient.New(flagURL,
				ingestdclient.WithAPIKey(flagKey),
				ingestdclient.WithTenantID(flagTenant))
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "http://localhost:3030", "ingestd server URL (env: INGESTD_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "tenant API key (env: INGESTD_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant-id", "", "tenant ID (env: INGESTD_TENANT_ID)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "output format: json|table|quiet")

	rootCmd.AddCommand(newConnectionsCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newTailCmd())
	rootCmd.AddCommand(newReportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	if flagURL == "http://localhost:3030" {
		if v := os.Getenv("INGESTD_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("INGESTD_API_KEY")
	}
	if flagTenant == "" {
		flagTenant = os.Getenv("INGESTD_TENANT_ID")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".ingestctl", "config.yaml"))
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	profileName := cfg.ActiveProfile
	if profileName == "" {
		profileName = "default"
	}
	p, ok := cfg.Profiles[profileName]
	if !ok {
		return
	}
	if flagURL == "http://localhost:3030" && p.URL != "" {
		flagURL = p.URL
	}
	if flagKey == "" && p.APIKey != "" {
		flagKey = p.APIKey
	}
	if flagTenant == "" && p.TenantID != "" {
		flagTenant = p.TenantID
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
