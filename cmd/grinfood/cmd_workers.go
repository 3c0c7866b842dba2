package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/grinfood/config"
)

var queueWorkersFlag int

// grinfood queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		workers := config.QueueWorkers()
		if cmd.Flags().Changed("workers") {
			workers = queueWorkersFlag
		}
		if workers < 1 {
			workers = 1
		}

		fmt.Printf("🚀 Queue worker started (%d workers, %s driver). Press Ctrl+C to stop.\n", workers, config.QueueDriver())
		a.Queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		a.Queue.Wait()
		fmt.Println("\n⚡ Queue worker stopped.")
		return nil
	},
}

// grinfood schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range a.Scheduler.List() {
			fmt.Println("  •", t)
		}

		fmt.Println("🕐 Scheduler started. Press Ctrl+C to stop.")
		a.Scheduler.Start(ctx)

		<-ctx.Done()
		a.Scheduler.Wait()
		fmt.Println("\n⚡ Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}
