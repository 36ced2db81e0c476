package models

// Guide is the assembled travel guide. Every value comes from a Success or
// CacheHit section result.
type Guide struct {
	RunID         string                   `json:"run_id,omitempty"`
	Destination   string                   `json:"destination"`
	StartDate     Date                     `json:"start_date"`
	EndDate       Date                     `json:"end_date"`
	Days          int                      `json:"days"`
	Restaurants   []Place                  `json:"restaurants"`
	Attractions   []Place                  `json:"attractions"`
	Events        []Event                  `json:"events"`
	Neighborhoods []Neighborhood           `json:"neighborhoods"`
	Itinerary     []DayPlan                `json:"itinerary"`
	Weather       []DailyForecast          `json:"weather"`
	PracticalInfo PracticalInfo            `json:"practical_info"`
	Citations     []string                 `json:"citations,omitempty"`
	Sources       map[Section]ResultStatus `json:"sources"`
}
