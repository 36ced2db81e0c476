// Package validate decides whether a guide draft is complete enough to publish.
package validate

import (
	"fmt"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

// Thresholds are the minimum content each section must carry.
type Thresholds struct {
	MinRestaurants      int `yaml:"min_restaurants"`
	MinAttractions      int `yaml:"min_attractions"`
	MinEvents           int `yaml:"min_events"`
	MinNeighborhoods    int `yaml:"min_neighborhoods"`
	MinActivitiesPerDay int `yaml:"min_activities_per_day"`
	MinTips             int `yaml:"min_tips"`
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRestaurants:      5,
		MinAttractions:      5,
		MinEvents:           1,
		MinNeighborhoods:    2,
		MinActivitiesPerDay: 1,
		MinTips:             3,
	}
}

// Validator checks drafts against Thresholds. It has no side effects.
type Validator struct {
	th Thresholds
}

// New creates a Validator.
func New(th Thresholds) *Validator {
	return &Validator{th: th}
}

// Validate returns one issue per required section that failed or fell short,
// in canonical section order. Trip days come from req.
func (v *Validator) Validate(req models.TripRequest, draft models.GuideDraft) models.ValidationResult {
	var issues []models.SectionIssue
	for _, s := range models.RequiredSections {
		if reason := v.check(req, s, draft); reason != "" {
			issues = append(issues, models.SectionIssue{Section: s, Reason: reason})
		}
	}
	return models.ValidationResult{Passed: len(issues) == 0, Issues: issues}
}

func (v *Validator) check(req models.TripRequest, s models.Section, draft models.GuideDraft) string {
	res, ok := draft[s]
	if !ok {
		return "section was not resolved"
	}
	if res.Status == models.StatusFailure {
		return provider.KindOf(res.Err).Reason()
	}
	if res.Payload == nil {
		return "insufficient content: empty payload"
	}

	switch p := res.Payload.(type) {
	case models.RestaurantsPayload:
		return atLeast(len(p.Restaurants), v.th.MinRestaurants, "restaurants")
	case models.AttractionsPayload:
		return atLeast(len(p.Attractions), v.th.MinAttractions, "attractions")
	case models.EventsPayload:
		return atLeast(len(p.Events), v.th.MinEvents, "events")
	case models.NeighborhoodsPayload:
		return atLeast(len(p.Neighborhoods), v.th.MinNeighborhoods, "neighborhoods")
	case models.ItineraryPayload:
		return v.checkItinerary(req, p)
	case models.WeatherPayload:
		return checkWeather(req, p)
	case models.PracticalInfoPayload:
		return v.checkPracticalInfo(p.Info)
	default:
		return fmt.Sprintf("insufficient content: unexpected payload %T", res.Payload)
	}
}

func atLeast(got, want int, noun string) string {
	if got >= want {
		return ""
	}
	return fmt.Sprintf("insufficient content: %d %s, need %d", got, noun, want)
}

func (v *Validator) checkItinerary(req models.TripRequest, p models.ItineraryPayload) string {
	byDate := make(map[string]int, len(p.Days))
	for _, d := range p.Days {
		byDate[d.Date.String()] += len(d.Activities)
	}
	var missing []string
	for _, d := range req.DayDates() {
		if byDate[d.String()] < v.th.MinActivitiesPerDay {
			missing = append(missing, d.String())
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "insufficient content: no day plan for " + strings.Join(missing, ", ")
}

func checkWeather(req models.TripRequest, p models.WeatherPayload) string {
	covered := make(map[string]bool, len(p.Forecasts))
	for _, f := range p.Forecasts {
		covered[f.Date.String()] = true
	}
	var missing []string
	for _, d := range req.DayDates() {
		if !covered[d.String()] {
			missing = append(missing, d.String())
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "insufficient content: no forecast for " + strings.Join(missing, ", ")
}

func (v *Validator) checkPracticalInfo(info models.PracticalInfo) string {
	var missing []string
	if strings.TrimSpace(info.Currency) == "" {
		missing = append(missing, "currency")
	}
	if strings.TrimSpace(info.Language) == "" {
		missing = append(missing, "language")
	}
	if len(info.Tips) < v.th.MinTips {
		missing = append(missing, fmt.Sprintf("%d tips, need %d", len(info.Tips), v.th.MinTips))
	}
	if len(missing) == 0 {
		return ""
	}
	return "insufficient content: " + strings.Join(missing, "; ")
}
