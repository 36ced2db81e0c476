package models

// Payload is the typed content of one guide section.
type Payload interface {
	Section() Section
}

// Place is a restaurant or attraction.
type Place struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Cuisine      string   `json:"cuisine,omitempty"`
	PriceTier    string   `json:"price_tier,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Address      string   `json:"address,omitempty"`
	Hours        []string `json:"hours,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Lat          float64  `json:"lat,omitempty"`
	Lng          float64  `json:"lng,omitempty"`
	DistanceKm   float64  `json:"distance_km,omitempty"`
	MapsURL      string   `json:"maps_url,omitempty"`
	Website      string   `json:"website,omitempty"`
}

// Event is a dated happening during the trip.
type Event struct {
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Neighborhood describes an area of the destination.
type Neighborhood struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	BestFor     string   `json:"best_for,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Activity is one entry in a day plan.
type Activity struct {
	Time        string `json:"time,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// DayPlan is the itinerary for one trip day.
type DayPlan struct {
	Date       Date       `json:"date"`
	Title      string     `json:"title,omitempty"`
	Activities []Activity `json:"activities"`
}

// DailyForecast is the weather for one day.
type DailyForecast struct {
	Date         Date    `json:"date"`
	TempHighC    float64 `json:"temp_high_c"`
	TempLowC     float64 `json:"temp_low_c"`
	Condition    string  `json:"condition"`
	ChanceOfRain int     `json:"chance_of_rain,omitempty"`
}

// PracticalInfo holds destination reference data.
type PracticalInfo struct {
	Currency  string   `json:"currency"`
	Language  string   `json:"language"`
	Timezone  string   `json:"timezone,omitempty"`
	Emergency string   `json:"emergency,omitempty"`
	Plugs     string   `json:"plugs,omitempty"`
	Transport []string `json:"transport,omitempty"`
	Tips      []string `json:"tips"`
}

// RestaurantsPayload is the restaurants section.
type RestaurantsPayload struct {
	Restaurants []Place  `json:"restaurants"`
	Citations   []string `json:"citations,omitempty"`
}

// AttractionsPayload is the attractions section.
type AttractionsPayload struct {
	Attractions []Place  `json:"attractions"`
	Citations   []string `json:"citations,omitempty"`
}

// EventsPayload is the events section.
type EventsPayload struct {
	Events    []Event  `json:"events"`
	Citations []string `json:"citations,omitempty"`
}

// NeighborhoodsPayload is the neighborhoods section.
type NeighborhoodsPayload struct {
	Neighborhoods []Neighborhood `json:"neighborhoods"`
	Citations     []string       `json:"citations,omitempty"`
}

// ItineraryPayload is the daily itinerary section.
type ItineraryPayload struct {
	Days      []DayPlan `json:"days"`
	Citations []string  `json:"citations,omitempty"`
}

// WeatherPayload is the weather section.
type WeatherPayload struct {
	Location  string          `json:"location"`
	Forecasts []DailyForecast `json:"forecasts"`
}

// PracticalInfoPayload is the practical info section.
type PracticalInfoPayload struct {
	Info      PracticalInfo `json:"info"`
	Citations []string      `json:"citations,omitempty"`
}

func (RestaurantsPayload) Section() Section   { return SectionRestaurants }
func (AttractionsPayload) Section() Section   { return SectionAttractions }
func (EventsPayload) Section() Section        { return SectionEvents }
func (NeighborhoodsPayload) Section() Section { return SectionNeighborhoods }
func (ItineraryPayload) Section() Section     { return SectionItinerary }
func (WeatherPayload) Section() Section       { return SectionWeather }
func (PracticalInfoPayload) Section() Section { return SectionPracticalInfo }
