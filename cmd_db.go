package main

import (
	"fmt"

	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/services"
	"github.com/spf13/cobra"
)

// agency migrate - create or update the database tables.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if err := connectAndMigrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete.")
			return nil
		},
	}
}

// agency roles grant|revoke <user-id> <role> - manage role assignments.
func newRolesCmd() *cobra.Command {
	roles := &cobra.Command{
		Use:   "roles",
		Short: "Manage user roles",
	}

	roles.AddCommand(&cobra.Command{
		Use:     "grant <user-id> <role>",
		Short:   "Give a user a role",
		Example: "  agency roles grant 'auth0|64f1c2' admin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleService, err := openRoleService()
			if err != nil {
				return err
			}
			if err := roleService.Grant(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", args[1], args[0])
			return nil
		},
	})

	roles.AddCommand(&cobra.Command{
		Use:   "revoke <user-id> <role>",
		Short: "Take a role away from a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleService, err := openRoleService()
			if err != nil {
				return err
			}
			if err := roleService.Revoke(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s from %s\n", args[1], args[0])
			return nil
		},
	})

	return roles
}

// openRoleService returns a RoleService on the already-set database, connecting when needed
func openRoleService() (*services.RoleService, error) {
	if config.GetDB() == nil {
		if _, err := loadConfig(); err != nil {
			return nil, err
		}
		if err := connectAndMigrate(); err != nil {
			return nil, err
		}
	}
	return services.NewRoleService(config.GetDB()), nil
}
