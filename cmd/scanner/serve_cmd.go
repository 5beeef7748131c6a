package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sym2arb/internal/dashboard"
	"sym2arb/internal/storage"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan-history dashboard and Prometheus metrics",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := storage.New(storage.Driver(cfg.Storage.Driver), cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}

			if port == 0 {
				port = cfg.Dashboard.Port
			}
			srv := dashboard.NewServer(dashboard.Config{Port: port, AuthToken: os.Getenv("DASHBOARD_AUTH_TOKEN")}, store, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Println("shutting down dashboard server")
				return srv.Shutdown(context.Background())
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to serve on (defaults to dashboard.port in config)")
	return cmd
}
