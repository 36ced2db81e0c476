package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/wayfarer/pkg/api"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := newLogger(logLevel)
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Info("starting wayfarer", "config", configPath, "cache", cfg.Cache.Backend, "broker", cfg.Generation.ProgressBroker)
			return api.New(cfg, a.orch, a.trips, a.broker).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "wayfarer.yaml", "path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&listen, "listen", "", "override the listen address")
	return cmd
}
