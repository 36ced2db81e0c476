package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/validate"
	"gopkg.in/yaml.v3"
)

// Provider categories used by routes.
const (
	CategoryContent = "content"
	CategoryWeather = "weather"
	CategoryPlaces  = "places"
)

// Config holds all Wayfarer configuration.
type Config struct {
	Listen      string              `yaml:"listen"`
	DBPath      string              `yaml:"db_path"`
	DatabaseURL string              `yaml:"database_url"`
	Providers   []ProviderConfig    `yaml:"providers"`
	Router      RouterConfig        `yaml:"router"`
	Cache       CacheConfig         `yaml:"cache"`
	Generation  GenerationConfig    `yaml:"generation"`
	Validation  validate.Thresholds `yaml:"validation"`
	Audit       models.AuditConfig  `yaml:"audit"`
}

// RouterConfig maps provider categories to configured providers.
type RouterConfig struct {
	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig binds one category (content, weather, places) to a provider by name.
type RouteConfig struct {
	Category string `yaml:"category"`
	Provider string `yaml:"provider"`
}

// ProviderConfig defines an upstream provider.
// Type is one of "perplexity", "gemini", "weatherapi", or "places".
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	URL         string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`
	MaxInFlight int64   `yaml:"max_in_flight"`
}

// CacheConfig selects the cache backend and per-namespace TTLs.
// Backend is "memory" (default), "sqlite", or "redis".
type CacheConfig struct {
	Backend  string                   `yaml:"backend"`
	RedisURL string                   `yaml:"redis_url"`
	TTL      map[string]time.Duration `yaml:"ttl"`
}

// GenerationConfig controls the orchestrator's latency budget.
type GenerationConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	SectionShare   float64       `yaml:"section_share"`
	Grace          time.Duration `yaml:"grace"`
	EnrichLimit    int           `yaml:"enrich_limit"`
	ProgressBroker string        `yaml:"progress_broker"`
}

// TTLTable returns the default TTL table with any configured overrides applied.
func (c CacheConfig) TTLTable() cache.TTLTable {
	t := cache.DefaultTTLs()
	for ns, ttl := range c.TTL {
		t[ns] = ttl
	}
	return t
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "wayfarer.db",
		Providers: []ProviderConfig{
			{Name: "perplexity", Type: "perplexity", URL: "https://api.perplexity.ai", Model: "sonar", RPS: 2, Burst: 4, MaxInFlight: 4},
			{Name: "weatherapi", Type: "weatherapi", URL: "https://api.weatherapi.com/v1", RPS: 5, Burst: 5, MaxInFlight: 2},
			{Name: "places", Type: "places", URL: "https://places.googleapis.com/v1", RPS: 10, Burst: 10, MaxInFlight: 8},
		},
		Router: RouterConfig{
			Routes: []RouteConfig{
				{Category: CategoryContent, Provider: "perplexity"},
				{Category: CategoryWeather, Provider: "weatherapi"},
				{Category: CategoryPlaces, Provider: "places"},
			},
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Generation: GenerationConfig{
			Timeout:        45 * time.Second,
			SectionShare:   0.9,
			Grace:          2 * time.Second,
			EnrichLimit:    8,
			ProgressBroker: "memory",
		},
		Validation: validate.DefaultThresholds(),
		Audit: models.AuditConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills empty secrets and connection strings from well-known environment variables.
func (c *Config) ApplyEnv() {
	keys := map[string]string{
		CategoryContent: os.Getenv("WAYFARER_CONTENT_API_KEY"),
		CategoryWeather: os.Getenv("WAYFARER_WEATHER_API_KEY"),
		CategoryPlaces:  os.Getenv("WAYFARER_PLACES_API_KEY"),
	}
	for _, r := range c.Router.Routes {
		key := keys[r.Category]
		if key == "" {
			continue
		}
		for i := range c.Providers {
			if c.Providers[i].Name == r.Provider && c.Providers[i].APIKey == "" {
				c.Providers[i].APIKey = key
			}
		}
	}
	if c.Cache.RedisURL == "" {
		c.Cache.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Audit.DBPath == "" {
		c.Audit.DBPath = c.DBPath
	}
}
