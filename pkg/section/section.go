// Package section resolves each guide section: cache first, then the
// section's provider, never substituting placeholder content.
package section

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	budgetpkg "github.com/wayfarer-ai/wayfarer/pkg/budget"
	"github.com/wayfarer-ai/wayfarer/pkg/cache"
	"github.com/wayfarer-ai/wayfarer/pkg/fingerprint"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

// Tick receives lightweight progress notes from a fetcher.
type Tick func(stage, msg string)

// Fetcher resolves one section for a trip.
type Fetcher interface {
	Section() models.Section
	// Resolve never returns an error: failures are carried in the result.
	Resolve(ctx context.Context, req models.TripRequest, budget time.Duration, tick Tick) models.SectionResult
}

// Metrics receives cache lookup outcomes ("hit", "miss", "error").
type Metrics interface {
	ObserveCacheLookup(namespace, result string)
}

// Deps are the collaborators shared by every fetcher.
type Deps struct {
	Cache   cache.Store
	TTLs    cache.TTLTable
	Content provider.Content
	Weather provider.Weather
	// Places is optional; without it restaurants and attractions are not enriched.
	Places      provider.Places
	EnrichLimit int
	Logger      *slog.Logger
	Metrics     Metrics
}

// Set holds one fetcher per required section. Concurrent runs resolving the
// same fingerprint through one Set share a provider call; a run that ends
// early never cancels the call for the others.
type Set struct {
	fetchers []Fetcher
}

// NewSet builds fetchers for every required section in canonical order.
func NewSet(d Deps) *Set {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.TTLs == nil {
		d.TTLs = cache.DefaultTTLs()
	}
	r := &resolver{deps: d, flights: &flightGroup{}}
	return &Set{fetchers: []Fetcher{
		newFetcher(r, models.SectionRestaurants, r.restaurants),
		newFetcher(r, models.SectionAttractions, r.attractions),
		newFetcher(r, models.SectionEvents, r.events),
		newFetcher(r, models.SectionNeighborhoods, r.neighborhoods),
		newFetcher(r, models.SectionItinerary, r.itinerary),
		newFetcher(r, models.SectionWeather, r.weather),
		newFetcher(r, models.SectionPracticalInfo, r.practicalInfo),
	}}
}

// Fetchers returns the fetchers in canonical section order.
func (s *Set) Fetchers() []Fetcher {
	return s.fetchers
}

// resolver carries the shared dependencies for the per-section produce funcs.
type resolver struct {
	deps    Deps
	flights *flightGroup
}

type produceFunc[P models.Payload] func(ctx context.Context, req models.TripRequest, budget time.Duration) (P, error)

type fetcher[P models.Payload] struct {
	r       *resolver
	section models.Section
	produce produceFunc[P]
}

func newFetcher[P models.Payload](r *resolver, s models.Section, produce produceFunc[P]) Fetcher {
	return &fetcher[P]{r: r, section: s, produce: produce}
}

func (f *fetcher[P]) Section() models.Section { return f.section }

func (f *fetcher[P]) Resolve(ctx context.Context, req models.TripRequest, budget time.Duration, tick Tick) models.SectionResult {
	req = req.Normalized()
	key := fingerprint.Build(req, f.section)
	ns := string(f.section)
	log := f.r.deps.Logger.With("section", ns)

	if p, ok := f.lookup(ctx, log, ns, key); ok {
		if tick != nil {
			tick(models.StageCache, f.section.Title()+" served from cache")
		}
		return models.CacheHit(p)
	}

	start := time.Now()
	c, shared := f.r.flights.join(ctx, ns+":"+key, func(fctx context.Context) (any, error) {
		return f.fetch(fctx, log, req, budget, ns, key)
	})
	defer f.r.flights.leave(ns+":"+key, c)

	select {
	case <-c.done:
	case <-ctx.Done():
		return models.Failure(f.section, &provider.Error{Kind: provider.KindTimeout, Provider: ns, Err: ctx.Err()})
	}
	if c.err == nil {
		if shared {
			log.Debug("shared in-flight provider call")
		}
		return models.Success(c.val.(P))
	}

	// A shared call that ran out of its starter's time does not decide
	// this run while it still has budget of its own.
	if shared && provider.KindOf(c.err) == provider.KindTimeout {
		if left := budgetpkg.Remaining(ctx, start, budget, time.Now()); budgetpkg.Check(left) == nil {
			log.Debug("shared call timed out, fetching with own budget", "remaining", left)
			p, err := f.fetch(ctx, log, req, left, ns, key)
			if err != nil {
				return models.Failure(f.section, provider.Classify(ns, err))
			}
			return models.Success(p.(P))
		}
	}
	return models.Failure(f.section, provider.Classify(ns, c.err))
}

// fetch calls the provider and caches the payload under ctx.
func (f *fetcher[P]) fetch(ctx context.Context, log *slog.Logger, req models.TripRequest, budget time.Duration, ns, key string) (any, error) {
	p, err := f.produce(ctx, req, budget)
	if err != nil {
		return nil, err
	}
	f.store(ctx, log, ns, key, p)
	return p, nil
}

// lookup reads and decodes a cached payload. Backend failures and
// undecodable entries degrade to a miss.
func (f *fetcher[P]) lookup(ctx context.Context, log *slog.Logger, ns, key string) (P, bool) {
	var zero P
	data, ok, err := f.r.deps.Cache.Get(ctx, ns, key)
	if err != nil {
		f.observe(ns, "error")
		log.Warn("cache lookup failed, treating as miss", "err", err)
		return zero, false
	}
	if !ok {
		f.observe(ns, "miss")
		return zero, false
	}
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		f.observe(ns, "error")
		log.Warn("cached entry undecodable, treating as miss", "err", err)
		return zero, false
	}
	f.observe(ns, "hit")
	return p, true
}

// store writes p under the section's TTL. A run that already hit its
// deadline writes nothing.
func (f *fetcher[P]) store(ctx context.Context, log *slog.Logger, ns, key string, p P) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Warn("encode payload for cache", "err", err)
		return
	}
	err = f.r.deps.Cache.Set(ctx, ns, key, data, f.r.deps.TTLs.For(ns))
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Debug("skipped cache write after deadline")
	default:
		log.Warn("cache write failed", "err", err)
	}
}

func (f *fetcher[P]) observe(ns, result string) {
	if f.r.deps.Metrics != nil {
		f.r.deps.Metrics.ObserveCacheLookup(ns, result)
	}
}
