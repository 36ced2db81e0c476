package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
)

func newGenerateCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		start, end string
		hotel      models.HotelInfo
		prefs      models.Preferences
		timeout    time.Duration
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <destination>",
		Short: "Generate a guide and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args[0], start, end, hotel, prefs)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Generation.Timeout = timeout
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, newLogger(logLevel))
			if err != nil {
				return err
			}
			defer a.Close()

			rec := models.TripRecord{Request: req}
			if !noSave {
				if rec, err = a.trips.Create(ctx, req); err != nil {
					return err
				}
			}

			sink := progress.FuncSink(func(evt models.ProgressEvent) {
				fmt.Fprintf(os.Stderr, "[%3d%%] %-10s %s\n", evt.Percent, evt.Stage, evt.Message)
			})
			g, err := a.orch.Execute(ctx, orchestrator.Run{
				TripID:  rec.ID,
				Request: req,
				Sink:    sink,
				Timeout: cfg.Generation.Timeout,
			})

			saveCtx := context.WithoutCancel(ctx)
			var gerr *orchestrator.GenerationError
			switch {
			case err == nil:
				if rec.ID != "" {
					if serr := a.trips.SaveGuide(saveCtx, rec.ID, g); serr != nil {
						a.log.Warn("save guide", "trip", rec.ID, "error", serr)
					}
				}
			case errors.As(err, &gerr):
				if rec.ID != "" {
					summary := models.FailureSummary{RunID: gerr.RunID, Classification: string(gerr.Classification), Missing: gerr.Missing}
					if serr := a.trips.SaveFailure(saveCtx, rec.ID, summary); serr != nil {
						a.log.Warn("save failure", "trip", rec.ID, "error", serr)
					}
				}
				for _, m := range gerr.Missing {
					fmt.Fprintf(os.Stderr, "missing %-15s %s\n", m.Section, m.Reason)
				}
				return err
			default:
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "path to config file")
	f.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	f.StringVar(&start, "start", "", "arrival date (YYYY-MM-DD)")
	f.StringVar(&end, "end", "", "departure date (YYYY-MM-DD)")
	f.StringVar(&hotel.Name, "hotel", "", "hotel name")
	f.StringVar(&hotel.Address, "hotel-address", "", "hotel address")
	f.Float64Var(&hotel.Lat, "hotel-lat", 0, "hotel latitude")
	f.Float64Var(&hotel.Lng, "hotel-lng", 0, "hotel longitude")
	f.StringSliceVar(&prefs.Interests, "interests", nil, "interests, e.g. art,food")
	f.StringSliceVar(&prefs.Cuisines, "cuisines", nil, "preferred cuisines")
	f.StringVar(&prefs.Pace, "pace", "", "relaxed, moderate, or packed")
	f.StringVar(&prefs.GroupType, "group", "", "solo, couple, family, or friends")
	f.DurationVar(&timeout, "timeout", 0, "overall generation timeout (default from config)")
	f.BoolVar(&noSave, "no-save", false, "do not store the trip")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// buildRequest assembles and validates a trip request from command flags.
func buildRequest(destination, start, end string, hotel models.HotelInfo, prefs models.Preferences) (models.TripRequest, error) {
	from, err := models.ParseDate(start)
	if err != nil {
		return models.TripRequest{}, fmt.Errorf("invalid --start (use YYYY-MM-DD): %w", err)
	}
	to, err := models.ParseDate(end)
	if err != nil {
		return models.TripRequest{}, fmt.Errorf("invalid --end (use YYYY-MM-DD): %w", err)
	}
	req := models.TripRequest{
		Destination: destination,
		StartDate:   from,
		EndDate:     to,
		Preferences: prefs,
	}
	if hotel != (models.HotelInfo{}) {
		h := hotel
		req.Hotel = &h
	}
	return req, req.Validate()
}
