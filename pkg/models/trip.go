package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidRequest is returned when a TripRequest cannot be used to generate a guide.
var ErrInvalidRequest = errors.New("invalid trip request")

const dateLayout = "2006-01-02"

// Date is a calendar date without a time of day. It encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date for the given year, month, and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HotelInfo references the traveller's accommodation.
type HotelInfo struct {
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// HasLocation reports whether the hotel carries coordinates.
func (h *HotelInfo) HasLocation() bool {
	return h != nil && (h.Lat != 0 || h.Lng != 0)
}

// Preferences are optional traveller preferences. Defaults are applied by Normalized.
type Preferences struct {
	Interests  []string `json:"interests,omitempty"`
	Cuisines   []string `json:"cuisines,omitempty"`
	PriceTiers []string `json:"price_tiers,omitempty"`
	Pace       string   `json:"pace,omitempty"`
	GroupType  string   `json:"group_type,omitempty"`
}

// Default preference values.
const (
	DefaultPace      = "moderate"
	DefaultGroupType = "couple"
)

// TripRequest holds the trip facts a guide is generated from.
type TripRequest struct {
	Destination string      `json:"destination"`
	StartDate   Date        `json:"start_date"`
	EndDate     Date        `json:"end_date"`
	Hotel       *HotelInfo  `json:"hotel,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// Validate checks the request before any provider is contacted.
func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidRequest)
	}
	if r.EndDate.Before(r.StartDate.Time) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidRequest, r.EndDate, r.StartDate)
	}
	return nil
}

// Days returns the number of guide days. The end date is the departure day,
// so a 2025-12-12..2025-12-17 trip has five days. Same-day trips have one.
func (r TripRequest) Days() int {
	n := int(r.EndDate.Sub(r.StartDate.Time).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// DayDates returns the calendar date of every guide day in order.
func (r TripRequest) DayDates() []Date {
	n := r.Days()
	out := make([]Date, n)
	for i := range n {
		out[i] = r.StartDate.AddDays(i)
	}
	return out
}

// Normalized returns a copy with defaults applied and tag lists lower-cased,
// trimmed, de-duplicated, and sorted. The receiver is not modified.
func (r TripRequest) Normalized() TripRequest {
	out := r
	out.Destination = strings.Join(strings.Fields(r.Destination), " ")
	if r.Hotel != nil {
		h := *r.Hotel
		h.Name = strings.TrimSpace(h.Name)
		h.Address = strings.TrimSpace(h.Address)
		out.Hotel = &h
	}
	p := r.Preferences
	out.Preferences = Preferences{
		Interests:  NormalizeTags(p.Interests),
		Cuisines:   NormalizeTags(p.Cuisines),
		PriceTiers: NormalizeTags(p.PriceTiers),
		Pace:       strings.ToLower(strings.TrimSpace(p.Pace)),
		GroupType:  strings.ToLower(strings.TrimSpace(p.GroupType)),
	}
	if out.Preferences.Pace == "" {
		out.Preferences.Pace = DefaultPace
	}
	if out.Preferences.GroupType == "" {
		out.Preferences.GroupType = DefaultGroupType
	}
	return out
}

// NormalizeTags lower-cases, trims, de-duplicates, and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TripStatus is the lifecycle state of a stored trip.
type TripStatus string

const (
	TripPending  TripStatus = "pending"
	TripComplete TripStatus = "complete"
	TripFailed   TripStatus = "failed"
)

// TripRecord is a persisted trip with its latest generation outcome.
type TripRecord struct {
	ID        string          `json:"id"`
	Request   TripRequest     `json:"request"`
	Status    TripStatus      `json:"status"`
	Guide     *Guide          `json:"guide,omitempty"`
	Failure   *FailureSummary `json:"failure,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FailureSummary records why the latest generation for a trip failed.
type FailureSummary struct {
	RunID          string         `json:"run_id"`
	Classification string         `json:"classification"`
	Missing        []SectionIssue `json:"missing_sections"`
}
