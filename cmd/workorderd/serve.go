package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/example/workorders/internal/cdc"
	grpcTransport "github.com/example/workorders/internal/transport/grpc"
	"github.com/example/workorders/internal/web"
)

var logger = loggo.GetLogger("workorders.cmd")

func serveCmd(load loader) *cobra.Command {
	var noConsumer bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API together with metrics and gRPC health endpoints.
In the stream topology over sqlite the change feed consumer runs in the
same process unless --no-consumer is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			cfg := app.Config

			// Start debug server for pprof and metrics
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", app.Metrics)
				mux.Handle("/debug/pprof/", http.DefaultServeMux)
				logger.Infof("starting debug server on %s (pprof + metrics)", cfg.MetricsAddr)
				if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
					logger.Warningf("debug server: %v", err)
				}
			}()

			var consumer *cdc.Consumer
			if cfg.Deferred() && app.SQLite != nil && !noConsumer {
				if consumer, err = app.Consumer(); err != nil {
					return err
				}
				consumer.Start()
			}

			health := grpcTransport.NewServer()
			go func() {
				if err := health.Serve(cfg.GRPCAddr); err != nil {
					logger.Errorf("gRPC server: %v", err)
				}
			}()

			webServer := web.NewServer(cfg.HTTPAddr, app.Handler, app.Metrics)
			errCh := make(chan error, 1)
			go func() { errCh <- webServer.Start() }()
			health.SetServing(true)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				logger.Infof("received %s, shutting down", sig)
			case err = <-errCh:
				logger.Errorf("web server: %v", err)
			}

			health.SetServing(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if serr := webServer.Shutdown(shutdownCtx); serr != nil {
				logger.Warningf("web server shutdown: %v", serr)
			}
			if consumer != nil {
				if serr := consumer.Stop(); serr != nil {
					logger.Warningf("consumer shutdown: %v", serr)
				}
			}
			health.GracefulStop()
			return err
		},
	}
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "do not run the change feed consumer in process")
	return cmd
}
