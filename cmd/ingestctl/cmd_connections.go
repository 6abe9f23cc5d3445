package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loglytics/ingestd/internal/models"
)

func newConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Manage tenant ingest connections",
	}
	cmd.AddCommand(connectionsCreateCmd())
	cmd.AddCommand(connectionsListCmd())
	cmd.AddCommand(connectionsRevokeCmd())
	return cmd
}

func connectionsCreateCmd() *cobra.Command {
	var ownerUserID, name, platformTag string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new tenant credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := apiClient.CreateConnection(context.Background(), models.CreateTenantRequest{
				OwnerUserID: ownerUserID,
				Name:        name,
				PlatformTag: platformTag,
			})
			if err != nil {
				fatal("create connection", err)
			}
			fmt.Fprintln(os.Stderr, "Save this key now - it will never be shown again.")
			output(cred, cred.TenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerUserID, "owner-user-id", "", "owning user ID")
	cmd.Flags().StringVar(&name, "name", "", "connection name")
	cmd.Flags().StringVar(&platformTag, "platform", "", "source platform tag")
	cmd.MarkFlagRequired("owner-user-id") //nolint:errcheck // cobra validates at parse time.
	cmd.MarkFlagRequired("name")          //nolint:errcheck
	cmd.MarkFlagRequired("platform")      //nolint:errcheck
	return cmd
}

func connectionsListCmd() *cobra.Command {
	var ownerUserID string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connections for an owning user",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenants, hasMore, err := apiClient.ListConnections(context.Background(), ownerUserID, limit, offset)
			if err != nil {
				fatal("list connections", err)
			}

			if flagFmt == "table" {
				headers := []string{"TENANT_ID", "NAME", "PLATFORM", "STATUS", "TOTAL_RECEIVED"}
				var rows [][]string
				for _, t := range tenants {
					rows = append(rows, []string{
						t.TenantID, t.Name, t.PlatformTag, string(t.Status), fmt.Sprintf("%d", t.TotalReceived),
					})
				}
				formatTable(headers, rows)
				return nil
			}

			output(map[string]any{"connections": tenants, "has_more": hasMore}, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerUserID, "owner-user-id", "", "owning user ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset")
	cmd.MarkFlagRequired("owner-user-id") //nolint:errcheck
	return cmd
}

func connectionsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <tenant_id>",
		Short: "Revoke a connection's credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.RevokeConnection(context.Background(), args[0]); err != nil {
				fatal("revoke connection", err)
			}
			fmt.Println("revoked")
			return nil
		},
	}
}
