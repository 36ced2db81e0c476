package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/wayfarer/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start Wayfarer as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, newLogger(logLevel))
			if err != nil {
				return err
			}
			defer a.Close()

			deps := mcp.Deps{
				Generator: a.orch,
				Trips:     a.trips,
				Cache:     a.cache,
				Timeout:   cfg.Generation.Timeout,
			}
			if a.audit != nil {
				deps.Audit = a.audit
			}
			return mcp.New(deps, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}
