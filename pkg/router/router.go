package router

import (
	"fmt"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
)

// Route is the resolved provider for one category.
type Route struct {
	Category string
	Provider config.ProviderConfig
	Model    string
}

// compatible lists the provider types able to serve each category.
var compatible = map[string][]string{
	config.CategoryContent: {"perplexity", "gemini"},
	config.CategoryWeather: {"weatherapi"},
	config.CategoryPlaces:  {"places"},
}

// Router resolves provider categories to configured providers.
type Router struct {
	cfg *config.Config
}

// New creates a Router from the given configuration.
func New(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

// Resolve returns the provider for category.
// An explicit route wins; otherwise the first provider of a compatible type is used.
func (r *Router) Resolve(category string) (Route, error) {
	types, ok := compatible[category]
	if !ok {
		return Route{}, fmt.Errorf("unknown provider category %q", category)
	}
	if len(r.cfg.Providers) == 0 {
		return Route{}, fmt.Errorf("no providers configured")
	}

	providerIndex := make(map[string]config.ProviderConfig, len(r.cfg.Providers))
	for _, p := range r.cfg.Providers {
		providerIndex[p.Name] = p
	}

	for _, route := range r.cfg.Router.Routes {
		if route.Category != category {
			continue
		}
		provider, ok := providerIndex[route.Provider]
		if !ok {
			return Route{}, fmt.Errorf("route %q: unknown provider %q", category, route.Provider)
		}
		if !contains(types, provider.Type) {
			return Route{}, fmt.Errorf("route %q: provider %q has type %q", category, provider.Name, provider.Type)
		}
		return Route{Category: category, Provider: provider, Model: provider.Model}, nil
	}

	for _, p := range r.cfg.Providers {
		if contains(types, p.Type) {
			return Route{Category: category, Provider: p, Model: p.Model}, nil
		}
	}
	return Route{}, fmt.Errorf("no provider configured for %q", category)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
