package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Push a batch of log lines from stdin (or --file) to the authenticated tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				body []byte
				err  error
			)
			if file != "" && file != "-" {
				body, err = os.ReadFile(file)
			} else {
				body, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				fatal("read batch", err)
			}

			ack, err := apiClient.Ingest(context.Background(), body)
			if err != nil {
				fatal("ingest batch", err)
			}
			output(ack, ack.TenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "batch file to send (\"-\" for stdin)")
	return cmd
}
