package section

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/budget"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

// contentShareWithEnrichment leaves the rest of a section's budget for places lookups.
const contentShareWithEnrichment = 0.75

var errNotConfigured = errors.New("provider not configured")

// fetchContent asks the content provider for s and decodes the answer into T.
func fetchContent[T any](ctx context.Context, r *resolver, s models.Section, prompt string, total time.Duration) (T, []string, error) {
	var v T
	if r.deps.Content == nil {
		return v, nil, &provider.Error{Kind: provider.KindAuthMissing, Provider: string(s), Err: errNotConfigured}
	}
	resp, err := r.deps.Content.Fetch(ctx, provider.ContentQuery{
		Section:  s,
		System:   systemPrompt,
		Prompt:   prompt,
		Validate: validator[T](),
	}, total)
	if err != nil {
		return v, nil, err
	}
	if err := decodeContent(resp.Content, &v); err != nil {
		return v, nil, &provider.Error{Kind: provider.KindMalformed, Provider: string(s), Err: err}
	}
	return v, resp.Citations, nil
}

func (r *resolver) contentBudget(total time.Duration) time.Duration {
	if r.deps.Places == nil {
		return total
	}
	return time.Duration(float64(total) * contentShareWithEnrichment)
}

func (r *resolver) restaurants(ctx context.Context, req models.TripRequest, total time.Duration) (models.RestaurantsPayload, error) {
	start := time.Now()
	p, cites, err := fetchContent[models.RestaurantsPayload](ctx, r, models.SectionRestaurants, restaurantsPrompt(req), r.contentBudget(total))
	if err != nil {
		return p, err
	}
	p.Restaurants = keepNamedPlaces(p.Restaurants)
	p.Citations = mergeCitations(cites, p.Citations)
	r.enrich(ctx, req, models.SectionRestaurants, p.Restaurants, budget.Remaining(ctx, start, total, time.Now()))
	return p, nil
}

func (r *resolver) attractions(ctx context.Context, req models.TripRequest, total time.Duration) (models.AttractionsPayload, error) {
	start := time.Now()
	p, cites, err := fetchContent[models.AttractionsPayload](ctx, r, models.SectionAttractions, attractionsPrompt(req), r.contentBudget(total))
	if err != nil {
		return p, err
	}
	p.Attractions = keepNamedPlaces(p.Attractions)
	p.Citations = mergeCitations(cites, p.Citations)
	r.enrich(ctx, req, models.SectionAttractions, p.Attractions, budget.Remaining(ctx, start, total, time.Now()))
	return p, nil
}

func (r *resolver) events(ctx context.Context, req models.TripRequest, total time.Duration) (models.EventsPayload, error) {
	p, cites, err := fetchContent[models.EventsPayload](ctx, r, models.SectionEvents, eventsPrompt(req), total)
	if err != nil {
		return p, err
	}
	events := p.Events[:0]
	for _, e := range p.Events {
		if strings.TrimSpace(e.Name) != "" {
			events = append(events, e)
		}
	}
	p.Events = events
	p.Citations = mergeCitations(cites, p.Citations)
	return p, nil
}

func (r *resolver) neighborhoods(ctx context.Context, req models.TripRequest, total time.Duration) (models.NeighborhoodsPayload, error) {
	p, cites, err := fetchContent[models.NeighborhoodsPayload](ctx, r, models.SectionNeighborhoods, neighborhoodsPrompt(req), total)
	if err != nil {
		return p, err
	}
	hoods := p.Neighborhoods[:0]
	for _, n := range p.Neighborhoods {
		if strings.TrimSpace(n.Name) != "" {
			hoods = append(hoods, n)
		}
	}
	p.Neighborhoods = hoods
	p.Citations = mergeCitations(cites, p.Citations)
	return p, nil
}

// itinerary keeps only day plans dated within the trip, in date order.
func (r *resolver) itinerary(ctx context.Context, req models.TripRequest, total time.Duration) (models.ItineraryPayload, error) {
	p, cites, err := fetchContent[models.ItineraryPayload](ctx, r, models.SectionItinerary, itineraryPrompt(req), total)
	if err != nil {
		return p, err
	}
	inTrip := make(map[string]bool)
	for _, d := range req.DayDates() {
		inTrip[d.String()] = true
	}
	days := p.Days[:0]
	for _, d := range p.Days {
		if inTrip[d.Date.String()] {
			days = append(days, d)
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date.Time) })
	p.Days = days
	p.Citations = mergeCitations(cites, p.Citations)
	return p, nil
}

func (r *resolver) practicalInfo(ctx context.Context, req models.TripRequest, total time.Duration) (models.PracticalInfoPayload, error) {
	info, cites, err := fetchContent[models.PracticalInfo](ctx, r, models.SectionPracticalInfo, practicalInfoPrompt(req), total)
	if err != nil {
		return models.PracticalInfoPayload{}, err
	}
	tips := info.Tips[:0]
	for _, t := range info.Tips {
		if t = strings.TrimSpace(t); t != "" {
			tips = append(tips, t)
		}
	}
	info.Tips = tips
	return models.PracticalInfoPayload{Info: info, Citations: mergeCitations(cites)}, nil
}

func (r *resolver) weather(ctx context.Context, req models.TripRequest, total time.Duration) (models.WeatherPayload, error) {
	if r.deps.Weather == nil {
		return models.WeatherPayload{}, &provider.Error{Kind: provider.KindAuthMissing, Provider: string(models.SectionWeather), Err: errNotConfigured}
	}
	dates := req.DayDates()
	forecasts, err := r.deps.Weather.Fetch(ctx, provider.WeatherQuery{
		Location: req.Destination,
		From:     dates[0],
		To:       dates[len(dates)-1],
	}, total)
	if err != nil {
		return models.WeatherPayload{}, err
	}
	sort.SliceStable(forecasts, func(i, j int) bool { return forecasts[i].Date.Before(forecasts[j].Date.Time) })
	return models.WeatherPayload{Location: req.Destination, Forecasts: forecasts}, nil
}

func keepNamedPlaces(in []models.Place) []models.Place {
	out := in[:0]
	for _, p := range in {
		if strings.TrimSpace(p.Name) != "" {
			out = append(out, p)
		}
	}
	return out
}
