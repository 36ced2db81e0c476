// Package guide assembles a validated draft into the final Guide.
package guide

import (
	"fmt"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Assemble reshapes draft into a Guide. It is deterministic and copies only
// content present in Success or CacheHit results. It returns an error if any
// required section lacks a usable payload, which means it was called with a
// draft that did not pass validation.
func Assemble(req models.TripRequest, draft models.GuideDraft) (*models.Guide, error) {
	g := &models.Guide{
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Days:        req.Days(),
		Sources:     make(map[models.Section]models.ResultStatus, len(models.RequiredSections)),
	}
	seen := make(map[string]bool)
	cite := func(urls []string) {
		for _, u := range urls {
			if u != "" && !seen[u] {
				seen[u] = true
				g.Citations = append(g.Citations, u)
			}
		}
	}

	for _, s := range models.RequiredSections {
		res, ok := draft[s]
		if !ok || !res.OK() {
			return nil, fmt.Errorf("assemble guide: section %s has no content", s)
		}
		if res.Payload.Section() != s {
			return nil, fmt.Errorf("assemble guide: section %s holds %s payload", s, res.Payload.Section())
		}
		g.Sources[s] = res.Status

		switch p := res.Payload.(type) {
		case models.RestaurantsPayload:
			g.Restaurants = p.Restaurants
			cite(p.Citations)
		case models.AttractionsPayload:
			g.Attractions = p.Attractions
			cite(p.Citations)
		case models.EventsPayload:
			g.Events = p.Events
			cite(p.Citations)
		case models.NeighborhoodsPayload:
			g.Neighborhoods = p.Neighborhoods
			cite(p.Citations)
		case models.ItineraryPayload:
			g.Itinerary = p.Days
			cite(p.Citations)
		case models.WeatherPayload:
			g.Weather = p.Forecasts
		case models.PracticalInfoPayload:
			g.PracticalInfo = p.Info
			cite(p.Citations)
		default:
			return nil, fmt.Errorf("assemble guide: section %s has payload %T", s, res.Payload)
		}
	}
	return g, nil
}
