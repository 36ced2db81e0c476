// Package fingerprint derives deterministic cache keys from trip requests.
//
// Each section only depends on the request fields that change its content,
// so two trips that differ in an irrelevant field share cached results.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Version is bumped whenever the encoding or field relevance changes.
const Version = "v2"

type field int

const (
	fieldDestination field = iota
	fieldDateRange
	fieldStartMonth
	fieldInterests
	fieldCuisines
	fieldPriceTiers
	fieldPace
	fieldGroupType
	fieldHotelLocation
)

var relevance = map[models.Section][]field{
	models.SectionRestaurants:   {fieldDestination, fieldCuisines, fieldPriceTiers, fieldGroupType, fieldHotelLocation},
	models.SectionAttractions:   {fieldDestination, fieldInterests, fieldPace, fieldGroupType, fieldHotelLocation},
	models.SectionEvents:        {fieldDestination, fieldDateRange, fieldInterests},
	models.SectionNeighborhoods: {fieldDestination, fieldInterests, fieldGroupType},
	models.SectionItinerary:     {fieldDestination, fieldDateRange, fieldInterests, fieldCuisines, fieldPace, fieldGroupType, fieldHotelLocation},
	models.SectionWeather:       {fieldDestination, fieldDateRange},
	models.SectionPracticalInfo: {fieldDestination, fieldStartMonth},
}

// Build returns the hex SHA-256 fingerprint of req for section.
// The request is normalized first; Build never reads the clock.
func Build(req models.TripRequest, section models.Section) string {
	h := sha256.Sum256([]byte(Canonical(req, section)))
	return hex.EncodeToString(h[:])
}

// Canonical returns the encoding that Build hashes. It is exposed for debugging.
func Canonical(req models.TripRequest, section models.Section) string {
	r := req.Normalized()
	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('|')
	b.WriteString(string(section))

	// Values are Go-quoted and lists are quoted element by element, so no
	// value can forge a separator.
	for _, f := range relevance[section] {
		b.WriteByte('|')
		switch f {
		case fieldDestination:
			fmt.Fprintf(&b, "dest=%q", strings.ToLower(r.Destination))
		case fieldDateRange:
			fmt.Fprintf(&b, "dates=%s..%s", r.StartDate, r.EndDate)
		case fieldStartMonth:
			fmt.Fprintf(&b, "month=%s", r.StartDate.Format("2006-01"))
		case fieldInterests:
			fmt.Fprintf(&b, "interests=%q", r.Preferences.Interests)
		case fieldCuisines:
			fmt.Fprintf(&b, "cuisines=%q", r.Preferences.Cuisines)
		case fieldPriceTiers:
			fmt.Fprintf(&b, "price=%q", r.Preferences.PriceTiers)
		case fieldPace:
			fmt.Fprintf(&b, "pace=%q", r.Preferences.Pace)
		case fieldGroupType:
			fmt.Fprintf(&b, "group=%q", r.Preferences.GroupType)
		case fieldHotelLocation:
			fmt.Fprintf(&b, "hotel=%q", hotelLocation(r.Hotel))
		}
	}
	return b.String()
}

// hotelLocation prefers coordinates rounded to ~100m, then the address.
func hotelLocation(h *models.HotelInfo) string {
	if h == nil {
		return ""
	}
	if h.HasLocation() {
		return fmt.Sprintf("%.3f,%.3f", h.Lat, h.Lng)
	}
	return strings.ToLower(strings.Join(strings.Fields(h.Address), " "))
}
