package fingerprint

import (
	"strings"
	"testing"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

func parisRequest() models.TripRequest {
	return models.TripRequest{
		Destination: "Paris",
		StartDate:   models.NewDate(2025, 12, 12),
		EndDate:     models.NewDate(2025, 12, 17),
		Hotel:       &models.HotelInfo{Name: "Hotel Lutetia", Address: "45 Bd Raspail, 75006 Paris"},
		Preferences: models.Preferences{
			Interests: []string{"art", "food"},
			Cuisines:  []string{"french"},
		},
	}
}

func TestBuildDeterministic(t *testing.T) {
	req := parisRequest()
	for _, s := range models.RequiredSections {
		a := Build(req, s)
		b := Build(req, s)
		if a != b {
			t.Errorf("%s: fingerprint not deterministic", s)
		}
		if len(a) != 64 {
			t.Errorf("%s: expected 64 hex chars, got %d", s, len(a))
		}
	}
}

func TestBuildTagOrderAndCase(t *testing.T) {
	a := parisRequest()
	b := parisRequest()
	b.Preferences.Interests = []string{" Food", "ART", "food"}

	for _, s := range models.RequiredSections {
		if Build(a, s) != Build(b, s) {
			t.Errorf("%s: tag order, case, or duplicates changed the fingerprint", s)
		}
	}
}

func TestBuildSectionsDiffer(t *testing.T) {
	req := parisRequest()
	seen := map[string]models.Section{}
	for _, s := range models.RequiredSections {
		fp := Build(req, s)
		if other, ok := seen[fp]; ok {
			t.Errorf("%s and %s share a fingerprint", s, other)
		}
		seen[fp] = s
	}
}

func TestWeatherIgnoresHotel(t *testing.T) {
	a := parisRequest()
	b := parisRequest()
	b.Hotel = &models.HotelInfo{Name: "Other", Address: "1 Rue de Rivoli"}

	if Build(a, models.SectionWeather) != Build(b, models.SectionWeather) {
		t.Error("hotel address must not affect the weather fingerprint")
	}
	if Build(a, models.SectionRestaurants) == Build(b, models.SectionRestaurants) {
		t.Error("hotel address should affect the restaurants fingerprint")
	}
}

func TestRelevantFieldsOnly(t *testing.T) {
	base := parisRequest()

	tests := []struct {
		name    string
		mutate  func(*models.TripRequest)
		changes []models.Section
		keeps   []models.Section
	}{
		{
			name:    "cuisines",
			mutate:  func(r *models.TripRequest) { r.Preferences.Cuisines = []string{"japanese"} },
			changes: []models.Section{models.SectionRestaurants, models.SectionItinerary},
			keeps:   []models.Section{models.SectionAttractions, models.SectionEvents, models.SectionWeather, models.SectionPracticalInfo},
		},
		{
			name:    "dates in same month",
			mutate:  func(r *models.TripRequest) { r.EndDate = models.NewDate(2025, 12, 19) },
			changes: []models.Section{models.SectionEvents, models.SectionWeather, models.SectionItinerary},
			keeps:   []models.Section{models.SectionRestaurants, models.SectionPracticalInfo, models.SectionNeighborhoods},
		},
		{
			name:    "pace",
			mutate:  func(r *models.TripRequest) { r.Preferences.Pace = "relaxed" },
			changes: []models.Section{models.SectionAttractions, models.SectionItinerary},
			keeps:   []models.Section{models.SectionRestaurants, models.SectionWeather, models.SectionNeighborhoods},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parisRequest()
			tt.mutate(&m)
			for _, s := range tt.changes {
				if Build(base, s) == Build(m, s) {
					t.Errorf("%s should change", s)
				}
			}
			for _, s := range tt.keeps {
				if Build(base, s) != Build(m, s) {
					t.Errorf("%s should not change", s)
				}
			}
		})
	}
}

func TestDefaultsMatchExplicit(t *testing.T) {
	a := parisRequest()
	b := parisRequest()
	b.Preferences.Pace = "Moderate"
	b.Preferences.GroupType = "couple"

	if Build(a, models.SectionItinerary) != Build(b, models.SectionItinerary) {
		t.Error("explicit defaults should match implicit defaults")
	}
}

func TestCanonicalVersionPrefix(t *testing.T) {
	c := Canonical(parisRequest(), models.SectionWeather)
	if !strings.HasPrefix(c, Version+"|weather|") {
		t.Errorf("unexpected canonical encoding: %s", c)
	}
}

func TestTagListsAreUnambiguous(t *testing.T) {
	joined := parisRequest()
	joined.Preferences.Cuisines = []string{"french,vegan"}
	split := parisRequest()
	split.Preferences.Cuisines = []string{"french", "vegan"}

	if Build(joined, models.SectionRestaurants) == Build(split, models.SectionRestaurants) {
		t.Error("a tag containing a comma must not collide with two tags")
	}

	piped := parisRequest()
	piped.Preferences.Pace = "relaxed|group=family"
	plain := parisRequest()
	plain.Preferences.Pace = "relaxed"
	plain.Preferences.GroupType = "family"
	if Build(piped, models.SectionAttractions) == Build(plain, models.SectionAttractions) {
		t.Error("a value containing the field separator must not collide")
	}
}
