package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

func newTripsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Inspect stored trips",
	}

	var (
		status string
		limit  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTrips(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recs, err := store.List(cmd.Context(), trips.ListOpts{Status: models.TripStatus(status), Limit: limit})
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No trips found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIP ID\tDESTINATION\tSTART\tEND\tSTATUS\tUPDATED")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Request.Destination, r.Request.StartDate, r.Request.EndDate, r.Status,
					r.UpdatedAt.Format("2006-01-02T15:04:05"))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "filter by status (pending, complete, failed)")
	listCmd.Flags().IntVar(&limit, "limit", 50, "max trips to return")

	showCmd := &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Print a stored trip as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTrips(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func openTrips(configPath string) (*trips.SQLStore, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	store, err := trips.Open(cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open trip store: %w", err)
	}
	return store, nil
}
