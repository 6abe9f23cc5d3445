package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail <tenant_id>",
		Short: "Subscribe to a tenant's live log fan-out over WebSocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			err := apiClient.Tail(ctx, args[0], func(raw []byte) {
				os.Stdout.Write(raw) //nolint:errcheck // best-effort write.
				fmt.Println()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				fatal("tail", err)
			}
			return nil
		},
	}
}
