package section

import (
	"fmt"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

const systemPrompt = `You are a travel research assistant with live web search.
Only include places, events, and facts you found in current sources. If you cannot verify something, leave it out.
Respond with a single JSON object matching the requested shape and nothing else.`

func tripContext(req models.TripRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s\n", req.Destination)
	fmt.Fprintf(&b, "Dates: %s to %s (%d days)\n", req.StartDate, req.EndDate, req.Days())
	if req.Hotel != nil && (req.Hotel.Name != "" || req.Hotel.Address != "") {
		fmt.Fprintf(&b, "Staying at: %s %s\n", req.Hotel.Name, req.Hotel.Address)
	}
	p := req.Preferences
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if len(p.Cuisines) > 0 {
		fmt.Fprintf(&b, "Cuisines: %s\n", strings.Join(p.Cuisines, ", "))
	}
	if len(p.PriceTiers) > 0 {
		fmt.Fprintf(&b, "Price tiers: %s\n", strings.Join(p.PriceTiers, ", "))
	}
	fmt.Fprintf(&b, "Pace: %s\nTravelling as: %s\n", p.Pace, p.GroupType)
	return b.String()
}

func restaurantsPrompt(req models.TripRequest) string {
	return tripContext(req) + `
Recommend 8 restaurants that are open during the trip and suit the cuisines, price tiers, and group above. Prefer places near the hotel.
Shape: {"restaurants":[{"name":"","description":"","cuisine":"","price_tier":"$|$$|$$$|$$$$","neighborhood":"","address":""}]}`
}

func attractionsPrompt(req models.TripRequest) string {
	return tripContext(req) + `
Recommend 8 attractions that match the interests and pace above and are open during the trip.
Shape: {"attractions":[{"name":"","description":"","category":"","neighborhood":"","address":"","website":""}]}`
}

func eventsPrompt(req models.TripRequest) string {
	return tripContext(req) + `
List concerts, exhibitions, festivals, markets, and shows taking place between the trip dates. Use YYYY-MM-DD dates.
Shape: {"events":[{"name":"","date":"YYYY-MM-DD","venue":"","category":"","description":"","url":""}]}`
}

func neighborhoodsPrompt(req models.TripRequest) string {
	return tripContext(req) + `
Describe 4 neighborhoods worth exploring for this traveller.
Shape: {"neighborhoods":[{"name":"","description":"","best_for":"","highlights":[""]}]}`
}

func itineraryPrompt(req models.TripRequest) string {
	dates := req.DayDates()
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.String()
	}
	return tripContext(req) + fmt.Sprintf(`
Plan each of these days: %s. Give every day at least three activities at a pace that fits the traveller.
Shape: {"days":[{"date":"YYYY-MM-DD","title":"","activities":[{"time":"HH:MM","title":"","description":"","location":""}]}]}`, strings.Join(days, ", "))
}

func practicalInfoPrompt(req models.TripRequest) string {
	return fmt.Sprintf(`Destination: %s
Travel month: %s
Give practical information for a visitor: local currency, main language, timezone, emergency number, plug type, getting around, and at least 5 practical tips.
Shape: {"currency":"","language":"","timezone":"","emergency":"","plugs":"","transport":[""],"tips":[""]}`,
		req.Destination, req.StartDate.Format("January 2006"))
}
