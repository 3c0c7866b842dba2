package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/grinfood/database/seeders"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// grinfood purge:sweep runs the backlog sweep once, outside the scheduler.
var purgeSweepCmd = &cobra.Command{
	Use:   "purge:sweep",
	Short: "Retry the cleanup of purged accounts once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		report, err := a.Purge.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Sweep done: %d retried, %d completed, %d still pending\n",
			report.Retried, report.Completed, report.Remaining)
		return nil
	},
}

// grinfood role:assign <uid> <role> bootstraps roles without an existing
// manager.
var roleAssignCmd = &cobra.Command{
	Use:   "role:assign <uid> <role>",
	Short: "Assign the user or manager role to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := rbac.ParseRole(args[1])
		if !ok {
			return fmt.Errorf("unknown role %q (want user or manager)", args[1])
		}

		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		id, err := a.Identities.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("account %s: %w", args[0], err)
		}
		if err := a.Roles.Assign(ctx, id.UID, role); err != nil {
			return err
		}
		fmt.Printf("✅ %s (%s) is now %s\n", id.Email, id.UID, role)
		return nil
	},
}

// grinfood seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, a, os.Stdout)
	},
}
