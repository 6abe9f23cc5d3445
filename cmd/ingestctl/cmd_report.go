package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loglytics/ingestd/internal/models"
)

func newReportCmd() *cobra.Command {
	var scopeID string
	var force bool
	cmd := &cobra.Command{
		Use:   "report <type>",
		Short: "Fetch an analytics report (overview|error-analysis|anomalies|performance|patterns|insights)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportType := models.AnalyticsType(args[0])
			if !reportType.Valid() {
				fatal("report", fmt.Errorf("unknown report type: %s", args[0]))
			}

			report, err := apiClient.Report(context.Background(), reportType, scopeID, force)
			if err != nil {
				fatal("fetch report", err)
			}
			output(report, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&scopeID, "scope", "", "optional scope ID to narrow the report")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cached report and recompute")
	return cmd
}
