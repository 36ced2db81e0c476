// Package trips persists trip requests and the outcome of their latest
// guide generation.
package trips

import (
	"context"
	"errors"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// ErrNotFound is returned when a trip ID is unknown.
var ErrNotFound = errors.New("trip not found")

// Store records trips and their generation outcomes.
type Store interface {
	// Create stores req as a new pending trip with a fresh ID.
	Create(ctx context.Context, req models.TripRequest) (models.TripRecord, error)
	// Get returns the trip with id, or ErrNotFound.
	Get(ctx context.Context, id string) (models.TripRecord, error)
	// SaveGuide marks the trip complete and clears any earlier failure.
	SaveGuide(ctx context.Context, id string, g *models.Guide) error
	// SaveFailure marks the trip failed. Any earlier guide is kept.
	SaveFailure(ctx context.Context, id string, f models.FailureSummary) error
	// List returns trips, newest first.
	List(ctx context.Context, opts ListOpts) ([]models.TripRecord, error)
	// Close releases resources.
	Close() error
}

// ListOpts filters List.
type ListOpts struct {
	Status models.TripStatus
	Limit  int
}

// Open returns a Postgres store when databaseURL is set, otherwise a SQLite
// store at dbPath.
func Open(dbPath, databaseURL string) (*SQLStore, error) {
	if databaseURL != "" {
		return NewPostgres(databaseURL)
	}
	return NewSQLite(dbPath)
}
