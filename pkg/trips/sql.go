package trips

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// SQLStore implements Store on database/sql. Queries are written with "?"
// placeholders and rebound for drivers that number them.
type SQLStore struct {
	db       *sql.DB
	numbered bool
	now      func() time.Time
}

const createTrips = `
CREATE TABLE IF NOT EXISTS trips (
	id TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	request TEXT NOT NULL,
	status TEXT NOT NULL,
	guide TEXT,
	failure TEXT,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
)`

const createTripsIndex = `CREATE INDEX IF NOT EXISTS idx_trips_status_created ON trips(status, created_at)`

func newSQLStore(db *sql.DB, numbered bool) (*SQLStore, error) {
	for _, stmt := range []string{createTrips, createTripsIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate trips db: %w", err)
		}
	}
	return &SQLStore{db: db, numbered: numbered, now: time.Now}, nil
}

// rebind rewrites "?" placeholders as $1, $2, ... when the driver needs it.
func (s *SQLStore) rebind(q string) string {
	if !s.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create stores req as a pending trip.
func (s *SQLStore) Create(ctx context.Context, req models.TripRequest) (models.TripRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.TripRecord{}, fmt.Errorf("encode trip request: %w", err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	rec := models.TripRecord{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    models.TripPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO trips (id, destination, request, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		rec.ID, req.Destination, string(body), string(rec.Status), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return models.TripRecord{}, fmt.Errorf("insert trip: %w", err)
	}
	return rec, nil
}

// Get returns the trip with id.
func (s *SQLStore) Get(ctx context.Context, id string) (models.TripRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, request, status, guide, failure, created_at, updated_at FROM trips WHERE id = ?`), id)
	rec, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TripRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// SaveGuide stores g and marks the trip complete.
func (s *SQLStore) SaveGuide(ctx context.Context, id string, g *models.Guide) error {
	body, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}
	return s.update(ctx, id,
		`UPDATE trips SET status = ?, guide = ?, failure = NULL, updated_at = ? WHERE id = ?`,
		string(models.TripComplete), string(body), s.now().UnixMilli(), id)
}

// SaveFailure stores f and marks the trip failed.
func (s *SQLStore) SaveFailure(ctx context.Context, id string, f models.FailureSummary) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode failure: %w", err)
	}
	return s.update(ctx, id,
		`UPDATE trips SET status = ?, failure = ?, updated_at = ? WHERE id = ?`,
		string(models.TripFailed), string(body), s.now().UnixMilli(), id)
}

func (s *SQLStore) update(ctx context.Context, id, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update trip %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trip %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns trips newest first.
func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]models.TripRecord, error) {
	q := `SELECT id, request, status, guide, failure, created_at, updated_at FROM trips`
	var args []any
	if opts.Status != "" {
		q += " WHERE status = ?"
		args = append(args, string(opts.Status))
	}
	q += " ORDER BY created_at DESC, id LIMIT ?"
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var out []models.TripRecord
	for rows.Next() {
		rec, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(sc scanner) (models.TripRecord, error) {
	var rec models.TripRecord
	var request, status string
	var guide, failure sql.NullString
	var created, updated int64
	if err := sc.Scan(&rec.ID, &request, &status, &guide, &failure, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan trip: %w", err)
	}
	rec.Status = models.TripStatus(status)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	if err := json.Unmarshal([]byte(request), &rec.Request); err != nil {
		return rec, fmt.Errorf("decode trip request %s: %w", rec.ID, err)
	}
	if guide.Valid && guide.String != "" {
		rec.Guide = new(models.Guide)
		if err := json.Unmarshal([]byte(guide.String), rec.Guide); err != nil {
			return rec, fmt.Errorf("decode guide %s: %w", rec.ID, err)
		}
	}
	if failure.Valid && failure.String != "" {
		rec.Failure = new(models.FailureSummary)
		if err := json.Unmarshal([]byte(failure.String), rec.Failure); err != nil {
			return rec, fmt.Errorf("decode failure %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

var _ Store = (*SQLStore)(nil)
