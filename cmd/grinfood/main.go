// Command grinfood runs the GrinFood order backend and its operator tasks.
//
//	grinfood serve          # HTTP + gRPC, queue workers and scheduler
//	grinfood route:list     # print the HTTP routes
//	grinfood queue:work     # standalone queue worker
//	grinfood schedule:run   # standalone scheduler
//	grinfood purge:sweep    # retry purge backlog once
//	grinfood role:assign <uid> <role>
//	grinfood seed
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/grinfood/internal/app"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "grinfood",
	Short:         "GrinFood order backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleRunCmd)

	// Operations
	rootCmd.AddCommand(purgeSweepCmd)
	rootCmd.AddCommand(roleAssignCmd)
	rootCmd.AddCommand(seedCmd)
}

// boot wires the application under a context cancelled by SIGINT/SIGTERM.
// The returned func closes both.
func boot() (context.Context, *app.Application, func(), error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a, err := app.Boot(ctx)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, a, func() {
		if err := a.Close(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
		stop()
	}, nil
}
