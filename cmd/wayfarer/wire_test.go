package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("Paris", "2025-12-12", "2025-12-17",
		models.HotelInfo{Name: "Hotel Lutetia"}, models.Preferences{Interests: []string{"art"}})
	require.NoError(t, err)
	assert.Equal(t, 5, req.Days())
	require.NotNil(t, req.Hotel)
	assert.Equal(t, "Hotel Lutetia", req.Hotel.Name)

	req, err = buildRequest("Paris", "2025-12-12", "2025-12-17", models.HotelInfo{}, models.Preferences{})
	require.NoError(t, err)
	assert.Nil(t, req.Hotel)

	_, err = buildRequest("Paris", "2025-12-17", "2025-12-12", models.HotelInfo{}, models.Preferences{})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = buildRequest("Paris", "12/12/2025", "2025-12-17", models.HotelInfo{}, models.Preferences{})
	assert.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "cache.db")

	for _, backend := range []string{"", "memory", "sqlite"} {
		cfg.Cache.Backend = backend
		c, err := openCache(cfg)
		require.NoError(t, err, backend)
		_, err = c.Stats(context.Background())
		assert.NoError(t, err, backend)
		require.NoError(t, c.Close())
	}

	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = ""
	_, err := openCache(cfg)
	assert.Error(t, err)

	cfg.Cache.Backend = "memcached"
	_, err = openCache(cfg)
	assert.Error(t, err)
}

// Without API keys every provider-backed section fails as auth_missing and
// the run fails validation instead of producing a partial guide.
func TestNewAppWithoutKeys(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "wayfarer.db")
	cfg.Audit.DBPath = filepath.Join(dir, "audit.db")
	cfg.Generation.Timeout = 5 * time.Second

	a, err := newApp(context.Background(), cfg, newLogger("error"))
	require.NoError(t, err)
	defer a.Close()

	var events []models.ProgressEvent
	_, err = a.orch.Execute(context.Background(), orchestrator.Run{
		Request: models.TripRequest{
			Destination: "Paris",
			StartDate:   models.NewDate(2025, 12, 12),
			EndDate:     models.NewDate(2025, 12, 17),
		},
		Sink: progress.FuncSink(func(evt models.ProgressEvent) { events = append(events, evt) }),
	})

	var gerr *orchestrator.GenerationError
	require.True(t, errors.As(err, &gerr), "got %v", err)
	assert.Equal(t, orchestrator.ClassValidationFailure, gerr.Classification)
	assert.Len(t, gerr.Missing, 7)
	require.NotEmpty(t, events)
	assert.Equal(t, models.StageFailed, events[len(events)-1].Stage)

	entries, err := a.audit.Query(context.Background(), models.AuditQueryOpts{RunID: gerr.RunID})
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}
