package provider

import (
	"context"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// ContentQuery asks a search-backed LLM for one section's content.
// Validate, if set, rejects answers that cannot be decoded.
type ContentQuery struct {
	Section  models.Section
	System   string
	Prompt   string
	Validate func(content string) error
}

// AcceptContent is an Options.Accept hook that applies ContentQuery.Validate.
func AcceptContent(q ContentQuery, r models.ContentResponse) error {
	if q.Validate == nil {
		return nil
	}
	return q.Validate(r.Content)
}

// WeatherQuery asks for a daily forecast covering From..To inclusive.
type WeatherQuery struct {
	Location string
	Lat      float64
	Lng      float64
	From     models.Date
	To       models.Date
}

// PlaceQuery looks up a single named place, optionally biased to a location.
type PlaceQuery struct {
	Text string
	Lat  float64
	Lng  float64
}

// Content is the content-provider contract consumed by section fetchers.
type Content interface {
	Fetch(ctx context.Context, q ContentQuery, budget time.Duration) (models.ContentResponse, error)
}

// Weather is the weather-provider contract.
type Weather interface {
	Fetch(ctx context.Context, q WeatherQuery, budget time.Duration) ([]models.DailyForecast, error)
}

// Places is the places-provider contract.
type Places interface {
	Fetch(ctx context.Context, q PlaceQuery, budget time.Duration) (models.PlaceDetails, error)
}

var (
	_ Content = (*Client[ContentQuery, models.ContentResponse])(nil)
	_ Weather = (*Client[WeatherQuery, []models.DailyForecast])(nil)
	_ Places  = (*Client[PlaceQuery, models.PlaceDetails])(nil)
)
