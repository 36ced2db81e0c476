package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the section cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Backend: %s\nEntries: %d\nHits:    %d\nMisses:  %d\n",
				cfg.Cache.Backend, stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	var (
		expiredOnly bool
		namespace   string
	)
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if expiredOnly {
				n, err := c.PurgeExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Purged %d expired cache entries.\n", n)
				return nil
			}
			if err := c.Clear(cmd.Context(), namespace); err != nil {
				return err
			}
			if namespace != "" {
				fmt.Printf("Cache namespace %q cleared.\n", namespace)
			} else {
				fmt.Println("All cache entries cleared.")
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")
	clearCmd.Flags().StringVar(&namespace, "namespace", "", "only clear one namespace, e.g. weather")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "wayfarer.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
