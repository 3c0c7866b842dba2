package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/grinfood/app/routes"
	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/internal/kernel"
	"github.com/shashiranjanraj/grinfood/internal/server"
)

var (
	serveWorkersFlag  int
	serveNoBackground bool
)

// grinfood serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, shutdown, err := boot()
		if err != nil {
			return err
		}
		defer shutdown()

		workers := config.QueueWorkers()
		if cmd.Flags().Changed("workers") {
			workers = serveWorkersFlag
		}
		opts := server.Options{QueueWorkers: workers, Scheduler: true}
		if serveNoBackground {
			opts = server.Options{}
		}
		return server.Run(ctx, a, opts)
	},
}

// listing mounts every route against zero-value controllers, so route:list
// needs no backend.
var listing = routes.API{
	GraphQL: http.NotFoundHandler(),
	Metrics: http.NotFoundHandler(),
	Files:   http.NotFoundHandler(),
}

// grinfood route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		k := kernel.NewHTTPKernel(listing, kernel.Options{})
		defer k.Close()

		infos := k.Routes()
		if len(infos) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", 0, "In-process queue workers (default QUEUE_WORKERS)")
	serveCmd.Flags().BoolVar(&serveNoBackground, "no-background", false, "Serve only; run queue:work and schedule:run separately")
}
