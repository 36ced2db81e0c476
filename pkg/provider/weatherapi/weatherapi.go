// Package weatherapi is a weather backend for WeatherAPI.com daily forecasts.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

// maxForecastDays is the longest horizon the forecast endpoint serves.
const maxForecastDays = 14

// Backend calls /forecast.json.
type Backend struct {
	name   string
	url    string
	apiKey string
	http   *http.Client
	now    func() time.Time
}

// New creates a Backend from provider configuration.
func New(cfg config.ProviderConfig, client *http.Client) *Backend {
	return &Backend{name: cfg.Name, url: cfg.URL, apiKey: cfg.APIKey, http: client, now: time.Now}
}

type forecastResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC          float64 `json:"maxtemp_c"`
				MinTempC          float64 `json:"mintemp_c"`
				DailyChanceOfRain int     `json:"daily_chance_of_rain"`
				Condition         struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Call returns one forecast per day within q.From..q.To that the provider covers.
// Days beyond the forecast horizon are absent, never estimated.
func (b *Backend) Call(ctx context.Context, q provider.WeatherQuery) ([]models.DailyForecast, error) {
	if b.apiKey == "" {
		return nil, &provider.Error{Kind: provider.KindAuthMissing, Provider: b.name, Err: errors.New("api key not configured")}
	}

	now := b.now().UTC()
	today := models.NewDate(now.Year(), now.Month(), now.Day())
	horizon := today.AddDays(maxForecastDays - 1)
	if q.From.After(horizon.Time) {
		return nil, provider.Errorf(provider.KindUnavailable, b.name,
			"trip starts %s, forecast horizon ends %s", q.From, horizon)
	}
	days := int(q.To.Sub(today.Time).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	loc := q.Location
	if q.Lat != 0 || q.Lng != 0 {
		loc = strconv.FormatFloat(q.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(q.Lng, 'f', 4, 64)
	}
	params := url.Values{
		"key":    {b.apiKey},
		"q":      {loc},
		"days":   {strconv.Itoa(days)},
		"aqi":    {"no"},
		"alerts": {"no"},
	}

	res, err := provider.DoRequest(ctx, b.http, http.MethodGet, b.url, "/forecast.json", params, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, provider.FromStatus(b.name, res.StatusCode, res.Body)
	}

	var resp forecastResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return nil, provider.Errorf(provider.KindMalformed, b.name, "decode forecast: %w", err)
	}

	var out []models.DailyForecast
	for _, fd := range resp.Forecast.ForecastDay {
		d, err := models.ParseDate(fd.Date)
		if err != nil {
			return nil, provider.Errorf(provider.KindMalformed, b.name, "forecast day: %w", err)
		}
		if d.Before(q.From.Time) || d.After(q.To.Time) {
			continue
		}
		out = append(out, models.DailyForecast{
			Date:         d,
			TempHighC:    fd.Day.MaxTempC,
			TempLowC:     fd.Day.MinTempC,
			Condition:    fd.Day.Condition.Text,
			ChanceOfRain: fd.Day.DailyChanceOfRain,
		})
	}
	if len(out) == 0 {
		return nil, provider.Errorf(provider.KindUnavailable, b.name, "no forecast days within %s..%s", q.From, q.To)
	}
	return out, nil
}
