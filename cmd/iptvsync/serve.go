package main

import (
	"context"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local playlist over HTTP and reconcile it periodically",
		RunE:  runServe,
	}

	serveCmd.Flags().StringVar(&cfg.BindAddr, "bind", cfg.BindAddr, "Bind address")
	serveCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "Port number")
	serveCmd.Flags().DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "Reconciliation interval")

	return serveCmd
}

func runServe(_ *cobra.Command, _ []string) error {
	log.WithFields(logrus.Fields{
		"upstreams": cfg.Upstreams(),
		"local":     cfg.LocalPath,
		"refresh":   cfg.RefreshInterval,
	}).Info("Starting playlist server")

	a := newApp()
	defer a.Close()

	routes := server.NewRoutes(log, a.store, a.status, a.metrics.Handler())
	srv := server.NewServer(log, cfg.ListenAddr(), cfg.RefreshInterval, a.reconciler, routes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	// Wait for interrupt signal
	waitForSignal()

	log.Info("Received shutdown signal")

	return srv.Stop()
}
