package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/audit"
	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/cache/memory"
	rediscache "github.com/wayfarer-ai/wayfarer/pkg/cache/redis"
	sqlitecache "github.com/wayfarer-ai/wayfarer/pkg/cache/sqlite"
	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/metrics"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
	"github.com/wayfarer-ai/wayfarer/pkg/provider/gemini"
	"github.com/wayfarer-ai/wayfarer/pkg/provider/perplexity"
	"github.com/wayfarer-ai/wayfarer/pkg/provider/places"
	"github.com/wayfarer-ai/wayfarer/pkg/provider/weatherapi"
	"github.com/wayfarer-ai/wayfarer/pkg/router"
	"github.com/wayfarer-ai/wayfarer/pkg/section"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
	"github.com/wayfarer-ai/wayfarer/pkg/validate"
)

// loadConfig reads path, or uses defaults plus the environment when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for command output and the MCP transport.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// app holds the long-lived components shared by serve, generate, and mcp.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	cache   cache.Store
	trips   *trips.SQLStore
	audit   *audit.Logger
	broker  progress.Broker
	orch    *orchestrator.Orchestrator
	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	metrics.RegisterDefault()
	rec := metrics.Recorder{}

	if a.cache, err = openCache(cfg); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.cache)

	if a.trips, err = trips.Open(cfg.DBPath, cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("open trip store: %w", err)
	}
	a.closers = append(a.closers, a.trips)

	if cfg.Audit.Enabled {
		if a.audit, err = audit.New(cfg.Audit); err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		a.closers = append(a.closers, a.audit)
	}

	switch cfg.Generation.ProgressBroker {
	case "redis":
		b, err := progress.NewRedisBroker(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init progress broker: %w", err)
		}
		a.broker = b
		a.closers = append(a.closers, b)
	default:
		a.broker = progress.NewMemoryBroker()
	}

	deps := section.Deps{
		Cache:       a.cache,
		TTLs:        cfg.Cache.TTLTable(),
		EnrichLimit: cfg.Generation.EnrichLimit,
		Logger:      log,
		Metrics:     rec,
	}
	if err := a.wireProviders(ctx, &deps, rec); err != nil {
		return nil, err
	}

	opts := orchestrator.Options{
		Fetchers:     section.NewSet(deps).Fetchers(),
		Validator:    validate.New(cfg.Validation),
		Timeout:      cfg.Generation.Timeout,
		SectionShare: cfg.Generation.SectionShare,
		Grace:        cfg.Generation.Grace,
		Logger:       log,
		Metrics:      rec,
	}
	if a.audit != nil {
		opts.Auditor = a.audit
	}
	a.orch = orchestrator.New(opts)
	return a, nil
}

// wireProviders resolves each provider category through the router and
// wraps the backend in a rate-limited, retrying client. A category without
// a usable provider is left unset; its sections then fail as auth_missing.
func (a *app) wireProviders(ctx context.Context, deps *section.Deps, obs provider.Observer) error {
	r := router.New(a.cfg)
	hc := &http.Client{}

	if route, err := r.Resolve(config.CategoryContent); err != nil {
		a.log.Warn("content provider unavailable", "error", err)
	} else {
		var backend provider.Backend[provider.ContentQuery, models.ContentResponse]
		switch route.Provider.Type {
		case "gemini":
			b, err := gemini.New(ctx, route.Provider)
			if err != nil {
				return fmt.Errorf("init %s: %w", route.Provider.Name, err)
			}
			a.closers = append(a.closers, b)
			backend = b
		default:
			backend = perplexity.New(route.Provider, hc)
		}
		deps.Content = provider.NewClient(backend, provider.Options[provider.ContentQuery, models.ContentResponse]{
			Name:        route.Provider.Name,
			RPS:         route.Provider.RPS,
			Burst:       route.Provider.Burst,
			MaxInFlight: route.Provider.MaxInFlight,
			Accept:      provider.AcceptContent,
			Logger:      a.log,
			Observer:    obs,
		})
	}

	if route, err := r.Resolve(config.CategoryWeather); err != nil {
		a.log.Warn("weather provider unavailable", "error", err)
	} else {
		deps.Weather = provider.NewClient[provider.WeatherQuery, []models.DailyForecast](
			weatherapi.New(route.Provider, hc),
			provider.Options[provider.WeatherQuery, []models.DailyForecast]{
				Name:        route.Provider.Name,
				RPS:         route.Provider.RPS,
				Burst:       route.Provider.Burst,
				MaxInFlight: route.Provider.MaxInFlight,
				Logger:      a.log,
				Observer:    obs,
			})
	}

	if route, err := r.Resolve(config.CategoryPlaces); err != nil {
		a.log.Info("places enrichment disabled", "error", err)
	} else {
		deps.Places = provider.NewClient[provider.PlaceQuery, models.PlaceDetails](
			places.New(route.Provider, hc),
			provider.Options[provider.PlaceQuery, models.PlaceDetails]{
				Name:        route.Provider.Name,
				RPS:         route.Provider.RPS,
				Burst:       route.Provider.Burst,
				MaxInFlight: route.Provider.MaxInFlight,
				Logger:      a.log,
				Observer:    obs,
			})
	}
	return nil
}

// Close releases every opened component in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close", "error", err)
		}
	}
	a.closers = nil
}

func openCache(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return memory.New(nil), nil
	case "sqlite":
		c, err := sqlitecache.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		return c, nil
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return nil, fmt.Errorf("init cache: redis backend needs cache.redis_url or REDIS_URL")
		}
		c, err := rediscache.NewFromURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
