// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/marketplace-service/internal/types"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var listTenantsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		var tenants []*types.Tenant
		if err := client.do(context.Background(), "GET", "/api/v0/admin/tenants", nil, &tenants); err != nil {
			return fmt.Errorf("failed to list tenants: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tPREFECTURE\tCREATED_AT")
		for _, t := range tenants {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Type, t.Status, t.Prefecture, t.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

var activateTenantCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Activate a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		body := map[string]string{"status": string(types.TenantStatusActive)}
		if err := client.do(context.Background(), "PATCH", "/api/v0/admin/tenants/"+args[0]+"/status", body, nil); err != nil {
			return fmt.Errorf("failed to activate tenant: %w", err)
		}

		fmt.Printf("Tenant activated: %s\n", args[0])
		return nil
	},
}

var deactivateTenantCmd = &cobra.Command{
	Use:   "deactivate [id]",
	Short: "Deactivate a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		body := map[string]string{"status": string(types.TenantStatusInactive)}
		if err := client.do(context.Background(), "PATCH", "/api/v0/admin/tenants/"+args[0]+"/status", body, nil); err != nil {
			return fmt.Errorf("failed to deactivate tenant: %w", err)
		}

		fmt.Printf("Tenant deactivated: %s\n", args[0])
		return nil
	},
}

var deleteTenantCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		if err := client.do(context.Background(), "DELETE", "/api/v0/admin/tenants/"+args[0], nil, nil); err != nil {
			return fmt.Errorf("failed to delete tenant: %w", err)
		}

		fmt.Printf("Tenant deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd)
	tenantCmd.AddCommand(listTenantsCmd)
	tenantCmd.AddCommand(activateTenantCmd)
	tenantCmd.AddCommand(deactivateTenantCmd)
	tenantCmd.AddCommand(deleteTenantCmd)
}
