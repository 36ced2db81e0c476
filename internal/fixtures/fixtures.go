// Package fixtures builds trip requests and section payloads shared by tests.
package fixtures

import (
	"fmt"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// ParisRequest is a five-day Paris trip: 2025-12-12 to 2025-12-17.
func ParisRequest() models.TripRequest {
	return models.TripRequest{
		Destination: "Paris",
		StartDate:   models.NewDate(2025, 12, 12),
		EndDate:     models.NewDate(2025, 12, 17),
		Hotel: &models.HotelInfo{
			Name:    "Hotel Lutetia",
			Address: "45 Bd Raspail, 75006 Paris",
			Lat:     48.8512,
			Lng:     2.3270,
		},
		Preferences: models.Preferences{
			Interests: []string{"art", "food", "history"},
			Cuisines:  []string{"french", "bistro"},
			Pace:      "moderate",
			GroupType: "couple",
		},
	}
}

func places(prefix string, n int) []models.Place {
	out := make([]models.Place, n)
	for i := range out {
		out[i] = models.Place{
			Name:        fmt.Sprintf("%s %d", prefix, i+1),
			Description: fmt.Sprintf("%s number %d", prefix, i+1),
		}
	}
	return out
}

// Restaurants returns n named restaurants.
func Restaurants(n int) models.RestaurantsPayload {
	return models.RestaurantsPayload{Restaurants: places("Bistro", n), Citations: []string{"https://example.com/food"}}
}

// Attractions returns n named attractions.
func Attractions(n int) models.AttractionsPayload {
	return models.AttractionsPayload{Attractions: places("Museum", n), Citations: []string{"https://example.com/see"}}
}

// Events returns n events.
func Events(n int) models.EventsPayload {
	out := models.EventsPayload{Citations: []string{"https://example.com/events"}}
	for i := range n {
		out.Events = append(out.Events, models.Event{Name: fmt.Sprintf("Concert %d", i+1), Date: "2025-12-13"})
	}
	return out
}

// Neighborhoods returns n neighborhoods.
func Neighborhoods(n int) models.NeighborhoodsPayload {
	out := models.NeighborhoodsPayload{}
	for i := range n {
		out.Neighborhoods = append(out.Neighborhoods, models.Neighborhood{Name: fmt.Sprintf("Quartier %d", i+1)})
	}
	return out
}

// Itinerary returns one plan with one activity for every trip day.
func Itinerary(req models.TripRequest) models.ItineraryPayload {
	out := models.ItineraryPayload{Citations: []string{"https://example.com/food"}}
	for i, d := range req.DayDates() {
		out.Days = append(out.Days, models.DayPlan{
			Date:       d,
			Title:      fmt.Sprintf("Day %d", i+1),
			Activities: []models.Activity{{Time: "10:00", Title: "Walk"}},
		})
	}
	return out
}

// Weather returns a forecast for every trip day.
func Weather(req models.TripRequest) models.WeatherPayload {
	out := models.WeatherPayload{Location: req.Destination}
	for _, d := range req.DayDates() {
		out.Forecasts = append(out.Forecasts, models.DailyForecast{Date: d, TempHighC: 8, TempLowC: 2, Condition: "Cloudy"})
	}
	return out
}

// PracticalInfo returns complete practical info.
func PracticalInfo() models.PracticalInfoPayload {
	return models.PracticalInfoPayload{Info: models.PracticalInfo{
		Currency: "EUR",
		Language: "French",
		Tips:     []string{"Validate metro tickets", "Tipping is included", "Museums close on Mondays or Tuesdays"},
	}}
}

// Payloads returns a passing payload for every required section.
func Payloads(req models.TripRequest) map[models.Section]models.Payload {
	return map[models.Section]models.Payload{
		models.SectionRestaurants:   Restaurants(6),
		models.SectionAttractions:   Attractions(6),
		models.SectionEvents:        Events(2),
		models.SectionNeighborhoods: Neighborhoods(3),
		models.SectionItinerary:     Itinerary(req),
		models.SectionWeather:       Weather(req),
		models.SectionPracticalInfo: PracticalInfo(),
	}
}

// CompleteDraft returns a draft that passes default validation.
func CompleteDraft(req models.TripRequest) models.GuideDraft {
	draft := models.GuideDraft{}
	for s, p := range Payloads(req) {
		draft[s] = models.Success(p)
	}
	return draft
}
