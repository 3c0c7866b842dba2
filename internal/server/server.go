// Package server runs the HTTP and gRPC listeners together with the
// in-process background loops until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/internal/app"
	"github.com/shashiranjanraj/grinfood/internal/kernel"
	"github.com/shashiranjanraj/grinfood/pkg/grpc"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
)

const shutdownGrace = 10 * time.Second

// Options select which background loops run inside the server process.
type Options struct {
	QueueWorkers int  // 0 disables the in-process queue workers
	Scheduler    bool // run the purge sweep scheduler
}

// Run serves until ctx is done, then drains HTTP and gRPC.
func Run(ctx context.Context, a *app.Application, opts Options) error {
	k := kernel.NewHTTPKernel(a.API, kernel.Options{
		RequestTimeout: config.RequestTimeout(),
		RateLimit:      config.Int("RATE_LIMIT", 200),
		RateWindow:     config.Duration("RATE_WINDOW", time.Minute),
	})
	defer k.Close()

	bg, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go a.Hub.Run(bg)
	if opts.QueueWorkers > 0 {
		a.Queue.StartWorkers(bg, opts.QueueWorkers)
	}
	if opts.Scheduler {
		a.Scheduler.Start(bg)
	}

	grpcSrv, err := grpc.Start(config.GRPCPort(), a.Store.Ping)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpSrv.RegisterOnShutdown(a.Broker.Close)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http: %w", err)
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	grpc.Stop(grpcSrv)

	stopBackground()
	a.Queue.Wait()
	a.Scheduler.Wait()
	return err
}
