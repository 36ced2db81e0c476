// Package places is a places backend for the Google Places Text Search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

const fieldMask = "places.displayName,places.formattedAddress,places.location,places.rating," +
	"places.priceLevel,places.regularOpeningHours.weekdayDescriptions,places.googleMapsUri"

// biasRadiusMeters limits location bias to roughly the city around the hotel.
const biasRadiusMeters = 20000.0

// ErrNoMatch is wrapped when the search returns no places.
var ErrNoMatch = errors.New("no place matched")

var priceTiers = map[string]string{
	"PRICE_LEVEL_FREE":           "free",
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

// Backend calls /places:searchText.
type Backend struct {
	name   string
	url    string
	apiKey string
	http   *http.Client
}

// New creates a Backend from provider configuration.
func New(cfg config.ProviderConfig, client *http.Client) *Backend {
	return &Backend{name: cfg.Name, url: cfg.URL, apiKey: cfg.APIKey, http: client}
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchRequest struct {
	TextQuery      string        `json:"textQuery"`
	MaxResultCount int           `json:"maxResultCount"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle struct {
		Center latLng  `json:"center"`
		Radius float64 `json:"radius"`
	} `json:"circle"`
}

type searchResponse struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress    string  `json:"formattedAddress"`
		Location            latLng  `json:"location"`
		Rating              float64 `json:"rating"`
		PriceLevel          string  `json:"priceLevel"`
		GoogleMapsURI       string  `json:"googleMapsUri"`
		RegularOpeningHours *struct {
			WeekdayDescriptions []string `json:"weekdayDescriptions"`
		} `json:"regularOpeningHours"`
	} `json:"places"`
}

// Call looks up the best match for q.
func (b *Backend) Call(ctx context.Context, q provider.PlaceQuery) (models.PlaceDetails, error) {
	if b.apiKey == "" {
		return models.PlaceDetails{}, &provider.Error{Kind: provider.KindAuthMissing, Provider: b.name, Err: errors.New("api key not configured")}
	}

	req := searchRequest{TextQuery: q.Text, MaxResultCount: 1}
	if q.Lat != 0 || q.Lng != 0 {
		req.LocationBias = &locationBias{}
		req.LocationBias.Circle.Center = latLng{Latitude: q.Lat, Longitude: q.Lng}
		req.LocationBias.Circle.Radius = biasRadiusMeters
	}
	body, err := json.Marshal(req)
	if err != nil {
		return models.PlaceDetails{}, err
	}

	headers := map[string]string{
		"X-Goog-Api-Key":   b.apiKey,
		"X-Goog-FieldMask": fieldMask,
	}
	res, err := provider.DoRequest(ctx, b.http, http.MethodPost, b.url, "/places:searchText", nil, headers, body)
	if err != nil {
		return models.PlaceDetails{}, err
	}
	if res.StatusCode != http.StatusOK {
		return models.PlaceDetails{}, provider.FromStatus(b.name, res.StatusCode, res.Body)
	}

	var resp searchResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return models.PlaceDetails{}, provider.Errorf(provider.KindMalformed, b.name, "decode places: %w", err)
	}
	if len(resp.Places) == 0 {
		return models.PlaceDetails{}, &provider.Error{Kind: provider.KindUnknown, Provider: b.name, Err: ErrNoMatch}
	}

	p := resp.Places[0]
	out := models.PlaceDetails{
		Name:      p.DisplayName.Text,
		Address:   p.FormattedAddress,
		PriceTier: priceTiers[p.PriceLevel],
		Rating:    p.Rating,
		Lat:       p.Location.Latitude,
		Lng:       p.Location.Longitude,
		MapsURL:   p.GoogleMapsURI,
	}
	if p.RegularOpeningHours != nil {
		out.Hours = p.RegularOpeningHours.WeekdayDescriptions
	}
	return out, nil
}
