package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/wayfarer/internal/fixtures"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

func TestAssemble(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionWeather] = models.CacheHit(fixtures.Weather(req))

	g, err := Assemble(req, draft)
	require.NoError(t, err)

	assert.Equal(t, "Paris", g.Destination)
	assert.Equal(t, 5, g.Days)
	assert.Len(t, g.Restaurants, 6)
	assert.Len(t, g.Attractions, 6)
	assert.Len(t, g.Itinerary, 5)
	assert.Len(t, g.Weather, 5)
	assert.Equal(t, "EUR", g.PracticalInfo.Currency)
	assert.Equal(t, models.StatusCacheHit, g.Sources[models.SectionWeather])
	assert.Equal(t, models.StatusSuccess, g.Sources[models.SectionRestaurants])
}

func TestAssembleCitationsDedupedInSectionOrder(t *testing.T) {
	req := fixtures.ParisRequest()
	g, err := Assemble(req, fixtures.CompleteDraft(req))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/food",
		"https://example.com/see",
		"https://example.com/events",
	}, g.Citations)
}

func TestAssembleDeterministic(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)

	a, err := Assemble(req, draft)
	require.NoError(t, err)
	b, err := Assemble(req, draft)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssembleRejectsFailure(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionEvents] = models.Failure(models.SectionEvents, &provider.Error{Kind: provider.KindTimeout})

	_, err := Assemble(req, draft)
	assert.Error(t, err)
}

func TestAssembleRejectsMismatchedPayload(t *testing.T) {
	req := fixtures.ParisRequest()
	draft := fixtures.CompleteDraft(req)
	draft[models.SectionEvents] = models.SectionResult{
		Section: models.SectionEvents,
		Status:  models.StatusSuccess,
		Payload: fixtures.Restaurants(6),
	}

	_, err := Assemble(req, draft)
	assert.Error(t, err)
}
