package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/wayfarer/internal/fixtures"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

func TestValidateCompleteDraft(t *testing.T) {
	req := fixtures.ParisRequest()
	res := New(DefaultThresholds()).Validate(req, fixtures.CompleteDraft(req))
	assert.True(t, res.Passed)
	assert.Empty(t, res.Issues)
}

func TestValidateCacheHitCounts(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionWeather] = models.CacheHit(fixtures.Weather(req))

	assert.True(t, New(DefaultThresholds()).Validate(req, draft).Passed)
}

func TestValidateFailureReasons(t *testing.T) {
	tests := []struct {
		kind provider.Kind
		want string
	}{
		{provider.KindTimeout, "provider timed out"},
		{provider.KindAuthMissing, "provider auth error"},
		{provider.KindAuthInvalid, "provider auth error"},
		{provider.KindRateLimited, "provider rate limited"},
		{provider.KindMalformed, "provider returned malformed content"},
		{provider.KindUnavailable, "provider has no data for the requested dates"},
		{provider.KindUnknown, "provider error"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			req := fixtures.ParisRequest()
			draft := fixtures.CompleteDraft(req)
			draft[models.SectionWeather] = models.Failure(models.SectionWeather, &provider.Error{Kind: tt.kind})

			res := New(DefaultThresholds()).Validate(req, draft)
			require.False(t, res.Passed)
			assert.Equal(t, []models.SectionIssue{{Section: models.SectionWeather, Reason: tt.want}}, res.Issues)
		})
	}
}

func TestValidateThresholds(t *testing.T) {
	req := fixtures.ParisRequest()

	tests := []struct {
		name    string
		section models.Section
		payload models.Payload
	}{
		{"restaurants", models.SectionRestaurants, fixtures.Restaurants(4)},
		{"attractions", models.SectionAttractions, fixtures.Attractions(1)},
		{"events", models.SectionEvents, fixtures.Events(0)},
		{"neighborhoods", models.SectionNeighborhoods, fixtures.Neighborhoods(1)},
		{"practical info tips", models.SectionPracticalInfo, models.PracticalInfoPayload{Info: models.PracticalInfo{Currency: "EUR", Language: "French", Tips: []string{"a", "b"}}}},
		{"practical info currency", models.SectionPracticalInfo, models.PracticalInfoPayload{Info: models.PracticalInfo{Language: "French", Tips: []string{"a", "b", "c"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := fixtures.CompleteDraft(req)
			draft[tt.section] = models.Success(tt.payload)

			res := New(DefaultThresholds()).Validate(req, draft)
			require.False(t, res.Passed)
			require.Len(t, res.Issues, 1)
			assert.Equal(t, tt.section, res.Issues[0].Section)
			assert.True(t, strings.HasPrefix(res.Issues[0].Reason, "insufficient content: "), res.Issues[0].Reason)
		})
	}
}

func TestValidateItineraryCoversEveryDay(t *testing.T) {
	req := fixtures.ParisRequest()
	it := fixtures.Itinerary(req)
	require.Len(t, it.Days, 5)

	it.Days = it.Days[:4]
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionItinerary] = models.Success(it)

	res := New(DefaultThresholds()).Validate(req, draft)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "insufficient content: no day plan for 2025-12-16", res.Issues[0].Reason)
}

func TestValidateItineraryDayWithoutActivities(t *testing.T) {
	req := fixtures.ParisRequest()
	it := fixtures.Itinerary(req)
	it.Days[0].Activities = nil
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionItinerary] = models.Success(it)

	res := New(DefaultThresholds()).Validate(req, draft)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0].Reason, "2025-12-12")
}

func TestValidateWeatherCoversEveryDay(t *testing.T) {
	req := fixtures.ParisRequest()
	w := fixtures.Weather(req)
	w.Forecasts = w.Forecasts[2:]
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionWeather] = models.Success(w)

	res := New(DefaultThresholds()).Validate(req, draft)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "insufficient content: no forecast for 2025-12-12, 2025-12-13", res.Issues[0].Reason)
}

func TestValidateIssuesInCanonicalOrder(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := models.GuideDraft{}
	for _, s := range models.RequiredSections {
		draft[s] = models.Failure(s, &provider.Error{Kind: provider.KindAuthMissing})
	}

	res := New(DefaultThresholds()).Validate(req, draft)
	require.Len(t, res.Issues, len(models.RequiredSections))
	for i, s := range models.RequiredSections {
		assert.Equal(t, s, res.Issues[i].Section)
		assert.Equal(t, "provider auth error", res.Issues[i].Reason)
	}
}

func TestValidateMissingSection(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	delete(draft, models.SectionEvents)

	res := New(DefaultThresholds()).Validate(req, draft)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, models.SectionEvents, res.Issues[0].Section)
}

func TestValidateCustomThresholds(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionRestaurants] = models.Success(fixtures.Restaurants(2))

	th := DefaultThresholds()
	th.MinRestaurants = 2
	assert.True(t, New(th).Validate(req, draft).Passed)
}
