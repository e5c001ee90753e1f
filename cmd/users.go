// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/marketplace-service/pkg/admin"
)

var (
	userQuery        string
	userRole         string
	userActive       string
	userTenantStatus string
	userTenantType   string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage platform users",
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List users across all tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		query := url.Values{}
		if userQuery != "" {
			query.Set("q", userQuery)
		}
		if userRole != "" {
			query.Set("role", userRole)
		}
		if userActive != "" {
			query.Set("active", userActive)
		}
		if userTenantStatus != "" {
			query.Set("tenant_status", userTenantStatus)
		}
		if userTenantType != "" {
			query.Set("tenant_type", userTenantType)
		}

		path := "/api/v0/admin/users"
		if encoded := query.Encode(); encoded != "" {
			path += "?" + encoded
		}

		var users []*admin.User
		if err := client.do(context.Background(), "GET", path, nil, &users); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tACTIVE\tTENANT\tLISTINGS")
		for _, u := range users {
			tenantName := "-"
			if u.Tenant != nil {
				tenantName = u.Tenant.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%d\n", u.Profile.ID, u.Profile.Name, u.Profile.Role, u.Profile.Active, tenantName, u.PublishedListings)
		}
		w.Flush()
		return nil
	},
}

var activateUserCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Activate a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		body := map[string]bool{"active": true}
		if err := client.do(context.Background(), "PATCH", "/api/v0/admin/users/"+args[0]+"/active", body, nil); err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}

		fmt.Printf("User activated: %s\n", args[0])
		return nil
	},
}

var deactivateUserCmd = &cobra.Command{
	Use:   "deactivate [id]",
	Short: "Deactivate a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(httpEndpoint)

		body := map[string]bool{"active": false}
		if err := client.do(context.Background(), "PATCH", "/api/v0/admin/users/"+args[0]+"/active", body, nil); err != nil {
			return fmt.Errorf("failed to deactivate user: %w", err)
		}

		fmt.Printf("User deactivated: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(activateUserCmd)
	usersCmd.AddCommand(deactivateUserCmd)

	listUsersCmd.Flags().StringVar(&userQuery, "query", "", "Case-insensitive substring match on profile name")
	listUsersCmd.Flags().StringVar(&userRole, "role", "", "Filter by role (TENANT_ADMIN, TENANT_MEMBER, PLATFORM_ADMIN)")
	listUsersCmd.Flags().StringVar(&userActive, "active", "", "Filter by active state (true or false)")
	listUsersCmd.Flags().StringVar(&userTenantStatus, "tenant-status", "", "Filter by tenant status (ACTIVE, INACTIVE)")
	listUsersCmd.Flags().StringVar(&userTenantType, "tenant-type", "", "Filter by tenant type (DEMAND, SUPPLY, BOTH)")
}
