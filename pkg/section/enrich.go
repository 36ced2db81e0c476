package section

import (
	"context"
	"time"

	"github.com/golang/geo/s2"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-ai/wayfarer/pkg/budget"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

const (
	defaultEnrichLimit = 8
	enrichParallelism  = 4
	earthRadiusKm      = 6371.0088
)

// enrich fills address, hours, price, rating, and coordinates from the places
// provider. Lookups that fail leave the place as the content provider described it.
func (r *resolver) enrich(ctx context.Context, req models.TripRequest, s models.Section, places []models.Place, remaining time.Duration) {
	if r.deps.Places == nil || len(places) == 0 {
		return
	}
	log := r.deps.Logger.With("section", string(s))
	if err := budget.Check(remaining); err != nil {
		log.Warn("skipping place enrichment", "err", err)
		return
	}

	limit := r.deps.EnrichLimit
	if limit <= 0 {
		limit = defaultEnrichLimit
	}
	n := min(limit, len(places))

	ectx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	var lat, lng float64
	if req.Hotel.HasLocation() {
		lat, lng = req.Hotel.Lat, req.Hotel.Lng
	}

	var g errgroup.Group
	g.SetLimit(enrichParallelism)
	for i := range n {
		g.Go(func() error {
			q := provider.PlaceQuery{Text: places[i].Name + ", " + req.Destination, Lat: lat, Lng: lng}
			d, err := r.deps.Places.Fetch(ectx, q, remaining)
			if err != nil {
				log.Warn("place lookup failed", "place", places[i].Name, "kind", provider.KindOf(err))
				return nil
			}
			applyDetails(&places[i], d, req.Hotel)
			return nil
		})
	}
	_ = g.Wait()
}

// applyDetails copies provider facts onto p. Descriptive fields from the
// content provider are kept when the places provider has nothing better.
func applyDetails(p *models.Place, d models.PlaceDetails, hotel *models.HotelInfo) {
	if d.Address != "" {
		p.Address = d.Address
	}
	if len(d.Hours) > 0 {
		p.Hours = d.Hours
	}
	if d.PriceTier != "" {
		p.PriceTier = d.PriceTier
	}
	if d.Rating > 0 {
		p.Rating = d.Rating
	}
	if d.MapsURL != "" {
		p.MapsURL = d.MapsURL
	}
	if d.Lat != 0 || d.Lng != 0 {
		p.Lat, p.Lng = d.Lat, d.Lng
		if hotel.HasLocation() {
			p.DistanceKm = distanceKm(hotel.Lat, hotel.Lng, d.Lat, d.Lng)
		}
	}
}

// distanceKm returns the great-circle distance between two points.
func distanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * earthRadiusKm
}
